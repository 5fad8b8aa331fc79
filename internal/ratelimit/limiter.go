package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter allows at most limit events per key in each fixed window.
// Counters live in Redis when a client is configured; otherwise a
// per-process token bucket with the same average rate is used.
type Limiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time

	local sync.Map // key -> *localLimiter
}

type localLimiter struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func New(redisClient *redis.Client, limit int, window time.Duration, prefix string) *Limiter {
	return &Limiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow records one event for key. On Redis failure the event is allowed
// and the error is returned for logging.
func (l *Limiter) Allow(ctx context.Context, key string) (allowed bool, remaining int, err error) {
	if l == nil || l.limit <= 0 {
		return true, 0, nil
	}
	if l.redis == nil {
		return l.allowLocal(key), 0, nil
	}

	now := l.now()
	windowStart := now.Truncate(l.window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, windowStart.Unix())

	pipe := l.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, l.limit, fmt.Errorf("incrementing rate counter: %w", err)
	}

	count := int(incrCmd.Val())
	remaining = l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= l.limit, remaining, nil
}

func (l *Limiter) allowLocal(key string) bool {
	v, _ := l.local.LoadOrStore(key, &localLimiter{
		limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit),
	})
	ll := v.(*localLimiter)
	now := l.now()
	ll.mu.Lock()
	ll.lastSeen = now
	ll.mu.Unlock()
	return ll.limiter.AllowN(now, 1)
}

// Prune drops local limiters idle for longer than maxIdle. Redis-backed
// limiters keep no local state.
func (l *Limiter) Prune(maxIdle time.Duration) int {
	if l == nil {
		return 0
	}
	cutoff := l.now().Add(-maxIdle)
	removed := 0
	l.local.Range(func(k, v interface{}) bool {
		ll := v.(*localLimiter)
		ll.mu.Lock()
		stale := ll.lastSeen.Before(cutoff)
		ll.mu.Unlock()
		if stale {
			l.local.Delete(k)
			removed++
		}
		return true
	})
	return removed
}

// IdleAfter is how long a local limiter must sit unused before Prune can
// drop it without changing its decisions: by then its bucket has refilled.
func (l *Limiter) IdleAfter() time.Duration {
	if l == nil {
		return 0
	}
	return l.window
}

// NewSuggestionLimiter limits suggestion regeneration per user.
func NewSuggestionLimiter(redisClient *redis.Client, limit int, window time.Duration) *Limiter {
	return New(redisClient, limit, window, "ratelimit:suggestions")
}
