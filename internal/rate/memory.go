package rate

import (
	"context"
	"fmt"
	"time"
)

// Counter incrementa un contador con vencimiento. Lo implementa el
// cliente de cache en memoria (go-cache).
type Counter interface {
	Incr(key string, ttl time.Duration) (int64, time.Time)
}

// MemoryLimiter: mismo fixed window que RedisLimiter, contado en proceso.
type MemoryLimiter struct {
	Counter Counter
	Prefix  string
	Max     int64
	Window  time.Duration
	Now     func() time.Time
}

func NewMemoryLimiter(c Counter, max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Counter: c,
		Prefix:  "rl:",
		Max:     int64(max),
		Window:  window,
		Now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.Now()
	winStart := now.UTC().Truncate(l.Window)
	k := fmt.Sprintf("%s%s:%d", l.Prefix, sanitizeKey(key), winStart.Unix())

	hits, _ := l.Counter.Incr(k, l.Window)
	ttl := winStart.Add(l.Window).Sub(now)
	return buildResult(hits, l.Max, ttl, l.Window), nil
}
