package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a CounterStore shared by every instance pointing at the same
// Redis. Each window is its own key and expires with the window.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := s.now()
	wkey, resetIn := s.windowKey(key, window, now)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, wkey)
		p.PExpire(ctx, wkey, window)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr %s: %w", wkey, err)
	}
	return incr.Val(), resetIn, nil
}

// windowKey aligns windows to multiples of window since the epoch.
func (s *RedisStore) windowKey(key string, window time.Duration, now time.Time) (string, time.Duration) {
	size := window.Milliseconds()
	if size <= 0 {
		size = 1
	}
	ms := now.UnixMilli()
	idx := ms / size
	resetIn := time.Duration((idx+1)*size-ms) * time.Millisecond
	return s.prefix + ":" + key + ":" + strconv.FormatInt(idx, 10), resetIn
}
