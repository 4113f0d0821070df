package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"diagram-hub/internal/interfaces"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"

	"github.com/redis/go-redis/v9"
)

// HandlerFunc serves one message pattern.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) *schemas.Envelope

// Server consumes one service queue with a fixed number of workers.
type Server struct {
	redis       interfaces.RedisQueueIface
	queue       string
	workers     int
	replyTTL    time.Duration
	pollTimeout time.Duration
	handlers    map[string]HandlerFunc
}

func NewServer(rdb interfaces.RedisQueueIface, queue string, workers int, replyTTL time.Duration) *Server {
	if workers <= 0 {
		workers = 1
	}
	return &Server{
		redis:       rdb,
		queue:       queue,
		workers:     workers,
		replyTTL:    replyTTL,
		pollTimeout: 5 * time.Second,
		handlers:    map[string]HandlerFunc{},
	}
}

// Register binds fn to pattern. Registering must happen before Run.
func (s *Server) Register(pattern string, fn HandlerFunc) {
	s.handlers[pattern] = fn
}

// Patterns lists the registered patterns.
func (s *Server) Patterns() []string {
	patterns := make([]string, 0, len(s.handlers))
	for pattern := range s.handlers {
		patterns = append(patterns, pattern)
	}
	return patterns
}

// Handle registers a typed handler: the payload is decoded into T and validated before fn runs.
func Handle[T any](s *Server, pattern string, fn func(ctx context.Context, req *T) *schemas.Envelope) {
	s.Register(pattern, func(ctx context.Context, payload json.RawMessage) *schemas.Envelope {
		req := new(T)
		if len(payload) > 0 && string(payload) != "null" {
			if err := json.Unmarshal(payload, req); err != nil {
				utils.LogMessageWithFields(ctx, "warn", "Undecodable "+pattern+" payload: "+err.Error())
				return schemas.Failure(schemas.NewBadRequest(schemas.BadRequestMessage).WithCause(err))
			}
		}
		if err := utils.GetValidator().ValidateStruct(req); err != nil {
			return schemas.Failure(err)
		}
		return fn(ctx, req)
	})
}

// Dispatch routes one message to its handler. Panics are turned into internal errors.
func (s *Server) Dispatch(ctx context.Context, message *Message) (envelope *schemas.Envelope) {
	handler, ok := s.handlers[message.Pattern]
	if !ok {
		return &schemas.Envelope{
			StatusCode: http.StatusNotFound,
			Message:    "No handler for pattern " + message.Pattern,
			Errors:     schemas.NewNotFound("No handler for pattern " + message.Pattern),
		}
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			utils.LogMessageWithFields(ctx, "error", fmt.Sprintf("Handler for %s panicked: %v", message.Pattern, recovered))
			envelope = schemas.Failure(schemas.NewInternal(fmt.Errorf("%v", recovered)))
		}
	}()
	return handler(ctx, message.Payload)
}

// Run consumes the queue until ctx is done.
func (s *Server) Run(ctx context.Context) {
	utils.LogMessage("info", fmt.Sprintf("Consuming %s with %d workers", s.queue, s.workers))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(ctx)
		}()
	}
	wg.Wait()

	utils.LogMessage("info", "Stopped consuming "+s.queue)
}

func (s *Server) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		result, err := s.redis.BRPop(ctx, s.pollTimeout, s.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			utils.LogMessage("error", "Reading from "+s.queue+" failed: "+err.Error())
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if len(result) != 2 {
			continue
		}

		s.process(ctx, []byte(result[1]))
	}
}

// process handles one raw message and pushes the reply.
func (s *Server) process(ctx context.Context, raw []byte) {
	message := &Message{}
	if err := json.Unmarshal(raw, message); err != nil {
		utils.LogMessage("error", "Dropping undecodable message on "+s.queue+": "+err.Error())
		return
	}

	msgCtx := utils.WithTraceId(ctx, message.TraceID)
	utils.LogMessageWithFields(msgCtx, "info", "Received "+message.Pattern)

	envelope := s.Dispatch(msgCtx, message)
	if message.ReplyTo == "" {
		return
	}

	reply, err := json.Marshal(envelope)
	if err != nil {
		utils.LogMessageWithFields(msgCtx, "error", "Encoding reply failed: "+err.Error())
		reply, _ = json.Marshal(schemas.Failure(schemas.NewInternal(err)))
	}

	if err := s.redis.LPush(msgCtx, message.ReplyTo, reply).Err(); err != nil {
		utils.LogMessageWithFields(msgCtx, "error", "Pushing reply failed: "+err.Error())
		return
	}
	if s.replyTTL > 0 {
		if err := s.redis.Expire(msgCtx, message.ReplyTo, s.replyTTL).Err(); err != nil {
			utils.LogMessageWithFields(msgCtx, "warn", "Setting reply expiry failed: "+err.Error())
		}
	}
	utils.LogMessageWithFields(msgCtx, "info", fmt.Sprintf("Replied %d to %s", envelope.StatusCode, message.Pattern))
}
