package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStore starts miniredis and connects a store to it
func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), RedisConfig{
		URL:       "redis://" + mr.Addr(),
		PoolSize:  10,
		KeyPrefix: "lexicon:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisConfig{URL: "invalid://url"})
	assert.Error(t, err)
}

func TestNewRedisStore_ConnectionFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), RedisConfig{URL: "redis://" + addr})
	assert.Error(t, err)
}

func TestRedisStore_GetSet(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "doc", []byte(`{"a":"b"}`), time.Minute))

	value, ok, err := store.Get(ctx, "doc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":"b"}`, string(value))

	assert.True(t, mr.Exists("lexicon:doc"), "keys carry the prefix")
	assert.Equal(t, time.Minute, mr.TTL("lexicon:doc"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = store.Get(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Incr(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	_, ok, err := store.Counter(ctx, "version")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := store.Incr(ctx, "version", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "unset counter is seeded before incrementing")

	n, err = store.Incr(ctx, "version", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, ok, err := store.Counter(ctx, "version")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), got)

	assert.Equal(t, time.Duration(0), mr.TTL("lexicon:version"), "counters never expire")
}

func TestRedisStore_IncrConcurrent(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Incr(ctx, "version", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, _, err := store.Counter(ctx, "version")
	require.NoError(t, err)
	assert.Equal(t, int64(1+writers), n)
}

func TestRedisStore_CounterNotInteger(t *testing.T) {
	store, mr := setupRedisStore(t)
	require.NoError(t, mr.Set("lexicon:version", "abc"))

	_, _, err := store.Counter(context.Background(), "version")
	assert.Error(t, err)
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()
	mr.Close()

	assert.Error(t, store.Ping(ctx))
	_, _, err := store.Get(ctx, "doc")
	assert.Error(t, err)
	assert.Error(t, store.Set(ctx, "doc", []byte("x"), time.Minute))
	_, err = store.Incr(ctx, "version", 1)
	assert.Error(t, err)
}
