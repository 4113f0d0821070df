package interfaces

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueueIface is the subset of *redis.Client used to move RPC messages between processes.
type RedisQueueIface interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
}
