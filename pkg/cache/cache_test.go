package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", map[string]int{"n": 3}, time.Minute))

	var got map[string]int
	assert.True(t, m.Get(ctx, "k", &got))
	assert.Equal(t, 3, got["n"])
	assert.True(t, m.Has(ctx, "k"))

	require.NoError(t, m.Del(ctx, "k"))
	assert.False(t, m.Has(ctx, "k"))
	assert.False(t, m.Get(ctx, "k", &got))
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "revoked:abc", true, time.Hour))
	assert.True(t, m.Has(ctx, "revoked:abc"))

	now = now.Add(time.Hour + time.Second)
	assert.False(t, m.Has(ctx, "revoked:abc"))
}

func TestMemoryNoTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", "v", 0))

	var v string
	assert.True(t, m.Get(ctx, "k", &v))
	assert.Equal(t, "v", v)
}

func TestNewDefaultsToMemory(t *testing.T) {
	s, err := New(context.Background(), Options{Driver: "memory"})
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Driver())
}

func TestNewRedisUnreachableFallsBack(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s, err := New(ctx, Options{Driver: "redis", Addr: "127.0.0.1:1"})
	assert.Error(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "memory", s.Driver())
}
