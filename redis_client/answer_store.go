package redis_client

import (
	"context"
	"errors"
	"time"

	redis "github.com/go-redis/redis/v8"
)

// AnswerStore keeps one captcha answer per key in Redis. Reads use GETDEL so
// an answer can be taken at most once.
type AnswerStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewAnswerStore wraps client. A ttl of zero stores answers without expiry.
func NewAnswerStore(client redis.Cmdable, prefix string, ttl time.Duration) *AnswerStore {
	return &AnswerStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *AnswerStore) key(k string) string {
	return s.prefix + k
}

// Put overwrites any answer already stored under key.
func (s *AnswerStore) Put(ctx context.Context, key, answer string) error {
	return s.client.Set(ctx, s.key(key), answer, s.ttl).Err()
}

// TakeAndClear returns the answer and deletes it in one round trip.
func (s *AnswerStore) TakeAndClear(ctx context.Context, key string) (string, bool, error) {
	answer, err := s.client.GetDel(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return answer, true, nil
}
