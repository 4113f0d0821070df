package mocks

import (
	"context"

	"diagram-hub/internal/interfaces"

	"github.com/stretchr/testify/mock"
)

type MockDatabaseManager struct {
	mock.Mock
}

func (m *MockDatabaseManager) Collection(name string) interfaces.MongoCollectionIface {
	args := m.Called(name)
	return args.Get(0).(interfaces.MongoCollectionIface)
}

func (m *MockDatabaseManager) EnsureUniqueIndexes(ctx context.Context, collection string, fields ...string) error {
	args := m.Called(ctx, collection, fields)
	return args.Error(0)
}

func (m *MockDatabaseManager) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDatabaseManager) Disconnect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
