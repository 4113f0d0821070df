// Package rpc implements request/response messaging between the gateway and the services
// on top of Redis lists. Requests are pushed onto the service queue; each reply is pushed
// onto a per-request list the caller blocks on.
package rpc

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrTimeout is returned when no reply arrived within the client timeout.
var ErrTimeout = errors.New("rpc: timed out waiting for reply")

// Message is one request as it travels over the queue.
type Message struct {
	ID      string          `json:"id"`
	Pattern string          `json:"pattern"`
	ReplyTo string          `json:"replyTo"`
	TraceID string          `json:"traceId,omitempty"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sentAt"`
}

// ReplyQueue returns the list a reply to message id on queue is pushed to.
func ReplyQueue(queue, id string) string {
	return queue + ":reply:" + id
}
