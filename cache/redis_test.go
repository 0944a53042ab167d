package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStoreWithClient(client, "", zerolog.Nop()), mr
}

func TestRedisStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s, mr := setupRedisStore(t)

	_, ok := s.Get(ctx, "missing")
	assert.False(t, ok)

	s.Set(ctx, "fetch|anime|1", []byte(`{"id":1}`), time.Minute)

	got, ok := s.Get(ctx, "fetch|anime|1")
	require.True(t, ok)
	assert.Equal(t, `{"id":1}`, string(got))
	assert.True(t, mr.Exists(defaultKeyPrefix+"fetch|anime|1"), "keys carry the store prefix")

	mr.FastForward(time.Minute + time.Second)
	_, ok = s.Get(ctx, "fetch|anime|1")
	assert.False(t, ok, "redis expiry should make the entry absent")
}

func TestRedisStore_Clear(t *testing.T) {
	ctx := context.Background()
	s, mr := setupRedisStore(t)

	require.NoError(t, mr.Set("unrelated", "keep"))
	s.Set(ctx, "a", []byte("1"), time.Minute)
	s.Set(ctx, "b", []byte("2"), 0)

	require.NoError(t, s.Clear(ctx))

	_, ok := s.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = s.Get(ctx, "b")
	assert.False(t, ok)
	assert.True(t, mr.Exists("unrelated"), "clear only touches prefixed keys")
}

func TestRedisStore_BackendFailureIsMiss(t *testing.T) {
	ctx := context.Background()
	s, mr := setupRedisStore(t)

	s.Set(ctx, "k", []byte("v"), time.Minute)
	mr.Close()

	_, ok := s.Get(ctx, "k")
	assert.False(t, ok)
	s.Set(ctx, "k", []byte("v"), time.Minute)
}

func TestNewRedisStore_RequiresAddr(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address is required")
}
