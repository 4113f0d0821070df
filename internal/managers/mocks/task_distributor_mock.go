package mocks

import (
	"context"

	"diagram-hub/internal/worker"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
)

type MockTaskDistributor struct {
	mock.Mock
}

func (m *MockTaskDistributor) DistributeTaskCreateActivityLog(ctx context.Context, payload *worker.CreateActivityLogPayload, _ ...asynq.Option) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockTaskDistributor) DistributeTaskSendOTPMail(ctx context.Context, payload *worker.SendOTPMailPayload, _ ...asynq.Option) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockTaskDistributor) Close() error {
	return m.Called().Error(0)
}
