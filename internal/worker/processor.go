package worker

import (
	"context"

	"diagram-hub/internal/utils"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
)

// RedisTaskProcessor runs the handlers a process was configured with.
// A nil recorder or mailer leaves the matching task type unregistered.
type RedisTaskProcessor struct {
	server   *asynq.Server
	recorder ActivityRecorder
	mailer   OTPMailer
}

func NewRedisTaskProcessor(opt asynq.RedisClientOpt, recorder ActivityRecorder, mailer OTPMailer) *RedisTaskProcessor {
	logger := log.WithFields(log.Fields{"service": utils.ExtractServiceName(), "component": "asynq"})

	processor := &RedisTaskProcessor{
		recorder: recorder,
		mailer:   mailer,
	}
	processor.server = asynq.NewServer(opt, asynq.Config{
		Queues: processor.Queues(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.WithError(err).WithField("type", task.Type()).Error("Process task failed")
		}),
		Logger: logger,
	})
	return processor
}

// Queues returns the queues of the handled task types with their priorities.
func (p *RedisTaskProcessor) Queues() map[string]int {
	queues := map[string]int{}
	for _, taskType := range p.TaskTypes() {
		queue := QueueFor(taskType)
		queues[queue] = queuePriorities[queue]
	}
	return queues
}

// TaskTypes lists the task types this processor has handlers for.
func (p *RedisTaskProcessor) TaskTypes() []string {
	var taskTypes []string
	if p.recorder != nil {
		taskTypes = append(taskTypes, TaskCreateActivityLog)
	}
	if p.mailer != nil {
		taskTypes = append(taskTypes, TaskSendOTPMail)
	}
	return taskTypes
}

// Mux returns the handler set for the configured task types.
func (p *RedisTaskProcessor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for _, taskType := range p.TaskTypes() {
		switch taskType {
		case TaskCreateActivityLog:
			mux.HandleFunc(taskType, p.ProcessTaskCreateActivityLog)
		case TaskSendOTPMail:
			mux.HandleFunc(taskType, p.ProcessTaskSendOTPMail)
		}
	}
	return mux
}

func (p *RedisTaskProcessor) Start() error {
	return p.server.Start(p.Mux())
}

func (p *RedisTaskProcessor) Shutdown() {
	p.server.Shutdown()
}
