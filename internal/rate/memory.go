package rate

import (
	"context"
	"time"
)

// Counter incrementa un contador con expiración. cache.MemoryClient lo implementa.
type Counter interface {
	Incr(key string, ttl time.Duration) (int64, time.Duration)
}

// MemoryLimiter fixed window en proceso, para instancias sin Redis.
type MemoryLimiter struct {
	counter Counter
	prefix  string
	max     int64
	window  time.Duration
}

// NewMemoryLimiter crea un limiter de max hits por window sobre counter.
func NewMemoryLimiter(counter Counter, prefix string, max int, window time.Duration) *MemoryLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &MemoryLimiter{counter: counter, prefix: prefix, max: int64(max), window: window}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	hits, ttl := l.counter.Incr(l.prefix+sanitizeKey(key), l.window)
	return newResult(hits, l.max, ttl, l.window), nil
}
