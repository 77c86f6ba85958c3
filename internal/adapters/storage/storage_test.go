package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eleven-am/panther/internal/domain"
	"github.com/eleven-am/panther/internal/ports"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newBadgerStore(t *testing.T, dir string) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(BadgerConfig{Path: dir, TokenKey: "test-token"}, createTestLogger())
	require.NoError(t, err)
	return store
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStoreWithClient(client, "test-token", createTestLogger()), mr
}

func exerciseStore(t *testing.T, store ports.TokenStore) {
	ctx := context.Background()

	_, ok, err := store.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "empty store must report a miss")

	storedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, domain.CachedToken{Value: "tok123", StoredAt: storedAt}))

	token, ok, err := store.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok123", token.Value)
	assert.True(t, storedAt.Equal(token.StoredAt))

	require.NoError(t, store.Put(ctx, domain.CachedToken{Value: "tok456"}))
	token, ok, err = store.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok456", token.Value)
	assert.False(t, token.StoredAt.IsZero())

	require.NoError(t, store.Clear(ctx))
	_, ok, err = store.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	err = store.Put(ctx, domain.CachedToken{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	exerciseStore(t, store)

	require.NoError(t, store.Close())
	_, _, err := store.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
}

func TestBadgerStore(t *testing.T) {
	store := newBadgerStore(t, t.TempDir())
	defer store.Close()

	exerciseStore(t, store)
}

func TestBadgerStore_InMemory(t *testing.T) {
	store, err := NewBadgerStore(BadgerConfig{InMemory: true}, nil)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestBadgerStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := newBadgerStore(t, dir)
	require.NoError(t, store.Put(ctx, domain.CachedToken{Value: "tokABC"}))
	require.NoError(t, store.Close())

	reopened := newBadgerStore(t, dir)
	defer reopened.Close()

	token, ok, err := reopened.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tokABC", token.Value)
}

func TestBadgerStore_ClosedStore(t *testing.T) {
	store := newBadgerStore(t, t.TempDir())
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "closing twice is a no-op")

	_, _, err := store.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	assert.ErrorIs(t, store.Put(context.Background(), domain.CachedToken{Value: "x"}), domain.ErrStoreClosed)
}

func TestBadgerStore_RequiresPath(t *testing.T) {
	_, err := NewBadgerStore(BadgerConfig{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.True(t, domain.IsComponentError(err))
}

func TestRedisStore(t *testing.T) {
	store, mr := newRedisStore(t)
	defer store.Close()

	exerciseStore(t, store)

	require.NoError(t, store.Put(context.Background(), domain.CachedToken{Value: "shared"}))
	value, err := mr.Get("test-token")
	require.NoError(t, err)
	assert.Equal(t, "shared", value, "token is stored as a plain string")
	assert.Zero(t, mr.TTL("test-token"), "token key carries no TTL")
}

func TestNewRedisStore_ParsesURL(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr()+"/0", "", nil)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, domain.DefaultTokenKey, store.key)
}

func TestNewRedisStore_Errors(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "", "k", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = NewRedisStore(context.Background(), "::not-a-url", "k", nil)
	assert.Error(t, err)
}
