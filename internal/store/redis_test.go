package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisStoreUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewRedisStore(ctx, RedisOptions{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestRedisStoreKeyPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	s := NewRedisStoreWithClient(client, "")
	assert.Equal(t, "askdb:dbConnection", s.key("dbConnection"))

	s = NewRedisStoreWithClient(client, "team:")
	assert.Equal(t, "team:queryHistory", s.key("queryHistory"))
}

func newMiniRedisStore(t *testing.T, prefix string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, prefix)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, mr := newMiniRedisStore(t, "")
	ctx := context.Background()

	_, err := s.Get(ctx, "dbConnection")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "dbConnection", `{"host":"a"}`))
	require.NoError(t, s.Set(ctx, "dbConnection", `{"host":"b"}`))

	v, err := s.Get(ctx, "dbConnection")
	require.NoError(t, err)
	assert.Equal(t, `{"host":"b"}`, v)

	// stored under the prefixed key on the server
	raw, err := mr.Get("askdb:dbConnection")
	require.NoError(t, err)
	assert.Equal(t, `{"host":"b"}`, raw)
	assert.False(t, mr.Exists("dbConnection"))

	require.NoError(t, s.Delete(ctx, "dbConnection"))
	assert.False(t, mr.Exists("askdb:dbConnection"))
	_, err = s.Get(ctx, "dbConnection")
	require.ErrorIs(t, err, ErrNotFound)

	// deleting a missing key is not an error
	require.NoError(t, s.Delete(ctx, "queryHistory"))
}

func TestRedisStoreCustomPrefix(t *testing.T) {
	s, mr := newMiniRedisStore(t, "team:")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "queryHistory", "{}"))
	assert.True(t, mr.Exists("team:queryHistory"))
	assert.False(t, mr.Exists("askdb:queryHistory"))
}

func TestNewRedisStorePings(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	s, err := NewRedisStore(context.Background(), RedisOptions{Addr: mr.Addr(), Password: "secret"})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(context.Background(), "k", "v"))

	_, err = NewRedisStore(context.Background(), RedisOptions{Addr: mr.Addr(), Password: "wrong"})
	require.Error(t, err)
}
