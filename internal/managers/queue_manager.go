package managers

import (
	"context"
	"fmt"
	"time"

	"diagram-hub/internal/interfaces"
	"diagram-hub/internal/rpc"
	"diagram-hub/internal/schemas"

	log "github.com/sirupsen/logrus"
)

// QueueMgr sends requests to the services over the RPC queue.
type QueueMgr interface {
	Send(ctx context.Context, service, pattern string, payload interface{}) (*schemas.ReplyEnvelope, error)
	Ping(ctx context.Context) error
}

// QueueManager keeps one RPC client per service.
type QueueManager struct {
	redis   interfaces.RedisQueueIface
	clients map[string]*rpc.Client
}

// NewQueueManager creates clients for the given service → queue mapping.
func NewQueueManager(rdb interfaces.RedisQueueIface, queues map[string]string, timeout time.Duration) QueueMgr {
	log.Info("Initializing queue manager")

	clients := make(map[string]*rpc.Client, len(queues))
	for service, queue := range queues {
		clients[service] = rpc.NewClient(rdb, queue, timeout)
	}
	return &QueueManager{redis: rdb, clients: clients}
}

func (qm *QueueManager) Send(ctx context.Context, service, pattern string, payload interface{}) (*schemas.ReplyEnvelope, error) {
	client, ok := qm.clients[service]
	if !ok {
		return nil, fmt.Errorf("no queue configured for service %s", service)
	}
	return client.Send(ctx, pattern, payload)
}

func (qm *QueueManager) Ping(ctx context.Context) error {
	return qm.redis.Ping(ctx).Err()
}
