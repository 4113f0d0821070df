package mocks

import (
	"context"

	"diagram-hub/internal/schemas"

	"github.com/stretchr/testify/mock"
)

type MockQueueManager struct {
	mock.Mock
}

func (m *MockQueueManager) Send(ctx context.Context, service, pattern string, payload interface{}) (*schemas.ReplyEnvelope, error) {
	args := m.Called(ctx, service, pattern, payload)
	reply, _ := args.Get(0).(*schemas.ReplyEnvelope)
	return reply, args.Error(1)
}

func (m *MockQueueManager) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
