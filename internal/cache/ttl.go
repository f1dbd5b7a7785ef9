package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTL is a keyed cache whose entries expire a fixed duration after they are set.
// Expired entries are dropped on read, and Set sweeps the whole map at most once per ttl so
// keys that are never read again do not accumulate.
type TTL[K comparable, V any] struct {
	mu        sync.Mutex
	ttl       time.Duration
	items     map[K]entry[V]
	now       func() time.Time
	nextSweep time.Time
	hits      uint64
	misses    uint64
}

func NewTTL[K comparable, V any](ttl time.Duration) *TTL[K, V] {
	return &TTL[K, V]{
		ttl:   ttl,
		items: make(map[K]entry[V]),
		now:   time.Now,
	}
}

func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if ok && c.now().Before(e.expires) {
		c.hits++
		return e.value, true
	}
	if ok {
		delete(c.items, key)
	}
	c.misses++
	var zero V
	return zero, false
}

func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !now.Before(c.nextSweep) {
		c.sweep(now)
		c.nextSweep = now.Add(c.ttl)
	}
	c.items[key] = entry[V]{value: value, expires: now.Add(c.ttl)}
}

func (c *TTL[K, V]) sweep(now time.Time) {
	for k, e := range c.items {
		if !now.Before(e.expires) {
			delete(c.items, k)
		}
	}
}

func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *TTL[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]entry[V])
}

// Len counts entries including ones that have expired but not been read since.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

func (c *TTL[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}
