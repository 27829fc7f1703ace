package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	c := New(time.Minute, 10)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", 42)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestExpiry(t *testing.T) {
	c := New(time.Minute, 10)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v")

	now = now.Add(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry still fresh inside the TTL")

	now = now.Add(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry expired past the TTL")
	assert.Equal(t, 0, c.Len(), "expired entry is dropped on read")
}

func TestEvictionOldestFirst(t *testing.T) {
	c := New(time.Hour, 2)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(time.Second)
	c.Set("b", 2)
	now = now.Add(time.Second)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry evicted")
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := New(time.Hour, 2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3)

	assert.Equal(t, 2, c.Len())
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestInvalidateAndClear(t *testing.T) {
	c := New(time.Hour, 0)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestKeyStable(t *testing.T) {
	k1 := Key("dashboard", []int{2022, 2023}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	k2 := Key("dashboard", []int{2022, 2023}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, k1, k2)

	k3 := Key("dashboard", []int{2022, 2024}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.NotEqual(t, k1, k3)

	assert.Equal(t,
		Key("m", map[string]string{"a": "1", "b": "2"}),
		Key("m", map[string]string{"b": "2", "a": "1"}),
		"map arguments key in sorted order")

	assert.Equal(t, "op|-", Key("op", time.Time{}), "zero time keys as open bound")
}
