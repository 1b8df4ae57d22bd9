package redis_client

import (
	"context"
	"time"

	redis "github.com/go-redis/redis/v8"
)

// RateBackend counts requests per fixed window in Redis so the limit holds
// across server instances.
type RateBackend struct {
	client redis.Cmdable
	prefix string
}

func NewRateBackend(client redis.Cmdable, prefix string) *RateBackend {
	return &RateBackend{client: client, prefix: prefix}
}

// Incr starts the window on the first hit of a key.
func (b *RateBackend) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := b.prefix + key
	count, err := b.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := b.client.PExpire(ctx, k, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}
