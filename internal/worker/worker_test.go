package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"diagram-hub/internal/schemas"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, req *schemas.CreateActivityLogRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendOTPMail(email, name, otp string) error {
	return m.Called(email, name, otp).Error(0)
}

func newTask(t *testing.T, taskType string, payload interface{}) *asynq.Task {
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(taskType, raw)
}

func TestProcessTaskCreateActivityLog(t *testing.T) {
	t.Run("RecordsLog", func(t *testing.T) {
		recorder := &mockRecorder{}
		recorder.On("Record", mock.Anything, mock.MatchedBy(func(req *schemas.CreateActivityLogRequest) bool {
			return req.Method == http.MethodGet && req.URL == "/diagrams" && req.StatusCode == http.StatusOK
		})).Return(nil)
		processor := &RedisTaskProcessor{recorder: recorder}

		err := processor.Mux().ProcessTask(context.Background(), newTask(t, TaskCreateActivityLog, CreateActivityLogPayload{
			TraceID: "trace-1",
			Log:     schemas.CreateActivityLogRequest{Method: http.MethodGet, URL: "/diagrams", StatusCode: http.StatusOK},
		}))

		require.NoError(t, err)
		recorder.AssertExpectations(t)
	})

	t.Run("MalformedPayloadSkipsRetry", func(t *testing.T) {
		processor := &RedisTaskProcessor{recorder: &mockRecorder{}}

		err := processor.ProcessTaskCreateActivityLog(context.Background(), asynq.NewTask(TaskCreateActivityLog, []byte("{")))

		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("InvalidLogSkipsRetry", func(t *testing.T) {
		recorder := &mockRecorder{}
		processor := &RedisTaskProcessor{recorder: recorder}

		err := processor.ProcessTaskCreateActivityLog(context.Background(), newTask(t, TaskCreateActivityLog, CreateActivityLogPayload{}))

		assert.ErrorIs(t, err, asynq.SkipRetry)
		recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("StoreFailureIsRetried", func(t *testing.T) {
		recorder := &mockRecorder{}
		recorder.On("Record", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
		processor := &RedisTaskProcessor{recorder: recorder}

		err := processor.ProcessTaskCreateActivityLog(context.Background(), newTask(t, TaskCreateActivityLog, CreateActivityLogPayload{
			Log: schemas.CreateActivityLogRequest{Method: http.MethodPost, URL: "/log-in", StatusCode: http.StatusUnauthorized},
		}))

		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestProcessTaskSendOTPMail(t *testing.T) {
	t.Run("SendsMail", func(t *testing.T) {
		mailer := &mockMailer{}
		mailer.On("SendOTPMail", "ada@example.com", "Ada", "4821").Return(nil)
		processor := &RedisTaskProcessor{mailer: mailer}

		err := processor.Mux().ProcessTask(context.Background(), newTask(t, TaskSendOTPMail, SendOTPMailPayload{
			Email: "ada@example.com", Name: "Ada", OTP: "4821",
		}))

		require.NoError(t, err)
		mailer.AssertExpectations(t)
	})

	t.Run("MissingRecipientSkipsRetry", func(t *testing.T) {
		processor := &RedisTaskProcessor{mailer: &mockMailer{}}

		err := processor.ProcessTaskSendOTPMail(context.Background(), newTask(t, TaskSendOTPMail, SendOTPMailPayload{OTP: "1234"}))

		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestMuxOnlyServesConfiguredTasks(t *testing.T) {
	processor := &RedisTaskProcessor{recorder: &mockRecorder{}}

	err := processor.Mux().ProcessTask(context.Background(), asynq.NewTask(TaskSendOTPMail, []byte("{}")))

	assert.Error(t, err)
}

func TestProcessorQueues(t *testing.T) {
	testCases := []struct {
		name      string
		processor *RedisTaskProcessor
		queues    map[string]int
	}{
		{"ActivityLogOnly", &RedisTaskProcessor{recorder: &mockRecorder{}}, map[string]int{ActivityLogQueue: 5}},
		{"MailOnly", &RedisTaskProcessor{mailer: &mockMailer{}}, map[string]int{MailQueue: 10}},
		{"Both", &RedisTaskProcessor{recorder: &mockRecorder{}, mailer: &mockMailer{}}, map[string]int{ActivityLogQueue: 5, MailQueue: 10}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.queues, tc.processor.Queues())
		})
	}
}

func TestQueueFor(t *testing.T) {
	assert.Equal(t, ActivityLogQueue, QueueFor(TaskCreateActivityLog))
	assert.Equal(t, MailQueue, QueueFor(TaskSendOTPMail))
	assert.NotEqual(t, QueueFor(TaskCreateActivityLog), QueueFor(TaskSendOTPMail))
}
