package cache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryClient implementa Client sobre go-cache.
type MemoryClient struct {
	prefix string
	c      *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory crea un cliente de cache en memoria.
// defaultTTL <= 0 significa sin expiración por default.
func NewMemory(prefix string, defaultTTL time.Duration) *MemoryClient {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &MemoryClient{
		prefix: prefix,
		c:      gocache.New(defaultTTL, time.Minute),
	}
}

func (m *MemoryClient) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.c.Get(prefixed(m.prefix, key))
	if !ok {
		m.misses.Add(1)
		return "", ErrNotFound
	}
	m.hits.Add(1)
	s, _ := v.(string)
	return s, nil
}

func (m *MemoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	d := ttl
	if d == 0 {
		d = gocache.NoExpiration
	}
	m.c.Set(prefixed(m.prefix, key), value, d)
	return nil
}

func (m *MemoryClient) Delete(ctx context.Context, key string) error {
	m.c.Delete(prefixed(m.prefix, key))
	return nil
}

func (m *MemoryClient) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.c.Get(prefixed(m.prefix, key))
	return ok, nil
}

// Incr incrementa un contador; si no existe lo crea con ttl. Lo usa rate.MemoryLimiter.
func (m *MemoryClient) Incr(key string, ttl time.Duration) (int64, time.Duration) {
	k := prefixed(m.prefix, key)
	if err := m.c.Add(k, int64(1), ttl); err == nil {
		return 1, ttl
	}
	n, err := m.c.IncrementInt64(k, 1)
	if err != nil {
		// la key expiró entre Add e Increment
		m.c.Set(k, int64(1), ttl)
		return 1, ttl
	}
	remaining := ttl
	if _, exp, ok := m.c.GetWithExpiration(k); ok && !exp.IsZero() {
		remaining = time.Until(exp)
	}
	return n, remaining
}

func (m *MemoryClient) Ping(ctx context.Context) error { return nil }

func (m *MemoryClient) Close() error {
	m.c.Flush()
	return nil
}

func (m *MemoryClient) Stats(ctx context.Context) (Stats, error) {
	return Stats{
		Driver: "memory",
		Keys:   int64(m.c.ItemCount()),
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
	}, nil
}
