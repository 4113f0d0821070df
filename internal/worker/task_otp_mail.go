package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"diagram-hub/internal/utils"

	"github.com/hibiken/asynq"
)

const TaskSendOTPMail = "task:send_otp_mail"

type SendOTPMailPayload struct {
	TraceID string `json:"traceId,omitempty"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	OTP     string `json:"otp"`
}

// OTPMailer delivers one-time passwords.
type OTPMailer interface {
	SendOTPMail(email, name, otp string) error
}

func (d *RedisTaskDistributor) DistributeTaskSendOTPMail(ctx context.Context, payload *SendOTPMailPayload, opts ...asynq.Option) error {
	return d.enqueue(ctx, TaskSendOTPMail, payload, opts...)
}

func (p *RedisTaskProcessor) ProcessTaskSendOTPMail(ctx context.Context, task *asynq.Task) error {
	var payload SendOTPMailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}
	if payload.Email == "" || payload.OTP == "" {
		return fmt.Errorf("otp mail without recipient or code: %w", asynq.SkipRetry)
	}

	ctx = utils.WithTraceId(ctx, payload.TraceID)
	utils.LogMessageWithFields(ctx, "info", "Sending OTP mail")

	if err := p.mailer.SendOTPMail(payload.Email, payload.Name, payload.OTP); err != nil {
		return fmt.Errorf("failed to send otp mail: %w", err)
	}
	return nil
}
