package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopmirror/internal/config"
)

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Mark(ctx, "short", time.Minute))
	require.NoError(t, s.Mark(ctx, "long", time.Hour))

	ok, err := s.Marked(ctx, "short")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = s.Marked(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = s.Marked(ctx, "long")
	assert.True(t, ok)
}

func TestMemoryStoreRejectsKeysWithoutExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	assert.ErrorIs(t, s.Mark(ctx, "k", 0), ErrNoExpiry)
	assert.ErrorIs(t, s.Mark(ctx, "k", -time.Second), ErrNoExpiry)
	ok, err := s.Marked(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreKeepsLaterDeadlineAndSweeps(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Mark(ctx, "tok", time.Hour))
	require.NoError(t, s.Mark(ctx, "tok", time.Minute))
	require.NoError(t, s.Mark(ctx, "gone", time.Second))

	now = now.Add(10 * time.Minute)
	ok, _ := s.Marked(ctx, "tok")
	assert.True(t, ok)

	require.NoError(t, s.Mark(ctx, "fresh", time.Minute))
	assert.Equal(t, 2, s.size())
}

func TestNewPicksBackend(t *testing.T) {
	_, isMem := New(config.RedisConfig{}).(*MemoryStore)
	assert.True(t, isMem)

	r, isRedis := New(config.RedisConfig{Addr: "127.0.0.1:6379"}).(*RedisStore)
	require.True(t, isRedis)
	assert.NoError(t, r.Close())
}
