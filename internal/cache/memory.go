package cache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre patrickmn/go-cache.
// Cada réplica tiene su propio cache.
type memoryClient struct {
	prefix string
	c      *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory crea un cliente de cache en memoria.
// defaultTTL se usa cuando Set recibe ttl < 0; 0 = sin expiración.
func NewMemory(prefix string, defaultTTL time.Duration) *memoryClient {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &memoryClient{
		prefix: prefix,
		c:      gocache.New(defaultTTL, time.Minute),
	}
}

func (m *memoryClient) key(k string) string {
	if m.prefix == "" {
		return k
	}
	return m.prefix + k
}

func (m *memoryClient) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.c.Get(m.key(key))
	if !ok {
		m.misses.Add(1)
		return "", ErrNotFound
	}
	m.hits.Add(1)
	s, _ := v.(string)
	return s, nil
}

func (m *memoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	switch {
	case ttl == 0:
		ttl = gocache.NoExpiration
	case ttl < 0:
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(m.key(key), value, ttl)
	return nil
}

func (m *memoryClient) Delete(ctx context.Context, key string) error {
	m.c.Delete(m.key(key))
	return nil
}

// Incr incrementa un contador entero creándolo con ttl si no existe.
// Lo usa el rate limiter en memoria; devuelve el valor y el vencimiento.
func (m *memoryClient) Incr(key string, ttl time.Duration) (int64, time.Time) {
	k := m.key(key)
	if err := m.c.Add(k, int64(1), ttl); err == nil {
		return 1, time.Now().Add(ttl)
	}
	n, err := m.c.IncrementInt64(k, 1)
	if err != nil {
		// expiró entre Add e Increment
		m.c.Set(k, int64(1), ttl)
		return 1, time.Now().Add(ttl)
	}
	_, exp, _ := m.c.GetWithExpiration(k)
	return n, exp
}

func (m *memoryClient) Ping(ctx context.Context) error {
	return nil
}

func (m *memoryClient) Close() error {
	m.c.Flush()
	return nil
}

func (m *memoryClient) Stats(ctx context.Context) (Stats, error) {
	return Stats{
		Driver: "memory",
		Keys:   int64(m.c.ItemCount()),
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
	}, nil
}
