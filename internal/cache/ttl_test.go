package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLGetSet(t *testing.T) {
	c := NewTTL[string, int](time.Minute)

	_, ok := c.Get("a")
	require.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.0001)
}

func TestTTLExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTL[string, string](5 * time.Minute)
	c.now = func() time.Time { return now }

	c.Set("user", "alice")
	now = now.Add(4 * time.Minute)
	_, ok := c.Get("user")
	require.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get("user")
	require.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLDeleteAndClear(t *testing.T) {
	c := NewTTL[string, int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	require.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestStatsEmpty(t *testing.T) {
	c := NewTTL[int, int](time.Minute)
	assert.Equal(t, Stats{}, c.Stats())
}

func TestTTLSetSweepsUnreadExpiredEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTL[string, int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(30 * time.Second)
	c.Set("c", 3)
	assert.Equal(t, 3, c.Len())

	now = now.Add(45 * time.Second)
	c.Set("d", 4)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c")
	assert.True(t, ok)
	_, ok = c.Get("a")
	assert.False(t, ok)
}
