package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"

	"github.com/hibiken/asynq"
)

const TaskCreateActivityLog = "task:create_activity_log"

// CreateActivityLogPayload is one request recorded by the gateway.
type CreateActivityLogPayload struct {
	TraceID string                           `json:"traceId,omitempty"`
	Log     schemas.CreateActivityLogRequest `json:"log"`
}

// ActivityRecorder persists activity logs.
type ActivityRecorder interface {
	Record(ctx context.Context, req *schemas.CreateActivityLogRequest) error
}

func (d *RedisTaskDistributor) DistributeTaskCreateActivityLog(ctx context.Context, payload *CreateActivityLogPayload, opts ...asynq.Option) error {
	return d.enqueue(ctx, TaskCreateActivityLog, payload, opts...)
}

func (p *RedisTaskProcessor) ProcessTaskCreateActivityLog(ctx context.Context, task *asynq.Task) error {
	var payload CreateActivityLogPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	ctx = utils.WithTraceId(ctx, payload.TraceID)
	if err := utils.GetValidator().ValidateStruct(&payload.Log); err != nil {
		return fmt.Errorf("invalid activity log: %v: %w", err, asynq.SkipRetry)
	}

	if err := p.recorder.Record(ctx, &payload.Log); err != nil {
		return fmt.Errorf("failed to record activity log: %w", err)
	}

	utils.LogMessageWithFields(ctx, "debug", "Recorded "+payload.Log.Method+" "+payload.Log.URL)
	return nil
}
