// Package ratelimit guards bursty ingress writes with a Redis-backed
// fixed-window counter keyed per program mnemonic.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter caps the number of create-disbursement style calls a single
// program mnemonic may make within one window.
type Limiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

func New(addr string, limit int64, window time.Duration) *Limiter {
	return &Limiter{
		rdb:    redis.NewClient(&redis.Options{Addr: addr}),
		limit:  limit,
		window: window,
	}
}

// Allow increments the counter for programMnemonic and reports whether
// the call is within the window's limit. The first increment in a
// window sets its expiry; later increments in the same window leave it
// untouched so the window doesn't get perpetually extended.
func (l *Limiter) Allow(ctx context.Context, programMnemonic string) (bool, error) {
	key := fmt.Sprintf("g2pbridge:ratelimit:%s", programMnemonic)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= l.limit, nil
}

func (l *Limiter) Close() error { return l.rdb.Close() }
