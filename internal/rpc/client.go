package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"diagram-hub/internal/interfaces"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client sends requests to one service queue.
type Client struct {
	redis   interfaces.RedisQueueIface
	queue   string
	timeout time.Duration
}

func NewClient(rdb interfaces.RedisQueueIface, queue string, timeout time.Duration) *Client {
	return &Client{redis: rdb, queue: queue, timeout: timeout}
}

// Queue returns the name of the list requests are pushed to.
func (c *Client) Queue() string {
	return c.queue
}

// Send pushes a request for pattern and waits for the service reply.
func (c *Client) Send(ctx context.Context, pattern string, payload interface{}) (*schemas.ReplyEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("rpc: encode payload for %s: %w", pattern, err)
	}

	id := uuid.New().String()
	message := Message{
		ID:      id,
		Pattern: pattern,
		ReplyTo: ReplyQueue(c.queue, id),
		TraceID: utils.TraceIdFromContext(ctx),
		Payload: body,
		SentAt:  time.Now(),
	}
	raw, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("rpc: encode message: %w", err)
	}

	if err := c.redis.LPush(ctx, c.queue, raw).Err(); err != nil {
		return nil, fmt.Errorf("rpc: push to %s: %w", c.queue, err)
	}
	utils.LogMessageWithFields(ctx, "debug", "Sent "+pattern+" to "+c.queue)

	result, err := c.redis.BLPop(ctx, c.timeout, message.ReplyTo).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("rpc: wait for %s reply: %w", pattern, err)
	}
	// BLPOP answers with [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("rpc: malformed reply for %s", pattern)
	}

	reply := &schemas.ReplyEnvelope{}
	if err := json.Unmarshal([]byte(result[1]), reply); err != nil {
		return nil, fmt.Errorf("rpc: decode %s reply: %w", pattern, err)
	}
	return reply, nil
}
