// Package worker runs the background tasks: activity-log ingestion and OTP mail delivery.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"diagram-hub/internal/utils"

	"github.com/hibiken/asynq"
)

// Each task type has its own queue, consumed only by the process that handles it.
const (
	ActivityLogQueue = "activity_logs"
	MailQueue        = "mail"
)

var taskQueues = map[string]string{
	TaskCreateActivityLog: ActivityLogQueue,
	TaskSendOTPMail:       MailQueue,
}

var queuePriorities = map[string]int{
	ActivityLogQueue: 5,
	MailQueue:        10,
}

// QueueFor returns the queue a task type is enqueued on.
func QueueFor(taskType string) string {
	return taskQueues[taskType]
}

// TaskDistributor enqueues background tasks.
type TaskDistributor interface {
	DistributeTaskCreateActivityLog(ctx context.Context, payload *CreateActivityLogPayload, opts ...asynq.Option) error
	DistributeTaskSendOTPMail(ctx context.Context, payload *SendOTPMailPayload, opts ...asynq.Option) error
	Close() error
}

type RedisTaskDistributor struct {
	client *asynq.Client
}

func NewRedisTaskDistributor(opt asynq.RedisClientOpt) TaskDistributor {
	return &RedisTaskDistributor{client: asynq.NewClient(opt)}
}

func (d *RedisTaskDistributor) Close() error {
	return d.client.Close()
}

func (d *RedisTaskDistributor) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}

	// The queue option goes last so callers cannot route a task away from its consumer.
	task := asynq.NewTask(taskType, jsonPayload, append(opts, asynq.Queue(QueueFor(taskType)))...)
	info, err := d.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}

	utils.LogMessageWithFields(ctx, "debug", fmt.Sprintf("Enqueued %s on %s (max retry %d)", taskType, info.Queue, info.MaxRetry))
	return nil
}
