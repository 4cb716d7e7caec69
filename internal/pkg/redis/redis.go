package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps a go-redis client behind the Cache interface.
type Redis struct {
	client *redis.Client
}

const Nil = redis.Nil

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client) Cache {
	return &Redis{client: client}
}

// NewScript compiles a Lua script for later execution via ScriptRun.
func NewScript(script string) *redis.Script {
	return redis.NewScript(script)
}

func (r *Redis) SetBytes(ctx context.Context, key string, value []byte, exp time.Duration) error {
	return r.client.Set(ctx, key, value, exp).Err()
}

func (r *Redis) GetBytes(ctx context.Context, key string) ([]byte, error) {
	return r.client.Get(ctx, key).Bytes()
}

func (r *Redis) ScriptRun(ctx context.Context, script *redis.Script, keys []string, args ...any) (any, error) {
	conn := r.client.Conn()
	defer conn.Close()

	return script.Run(ctx, conn, keys, args...).Result()
}
