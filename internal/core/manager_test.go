package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eleven-am/panther/internal/adapters/storage"
	"github.com/eleven-am/panther/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backends struct {
	proxy        *httptest.Server
	spotify      *httptest.Server
	proxyHits    int32
	lastAuth     atomic.Value
	artistStatus int32
}

func newBackends(t *testing.T) *backends {
	t.Helper()
	b := &backends{artistStatus: http.StatusOK}

	b.proxy = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&b.proxyHits, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			_, _ = w.Write([]byte(`{"access_token":"first"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"second"}`))
	}))
	t.Cleanup(b.proxy.Close)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/artists/a", func(w http.ResponseWriter, r *http.Request) {
		b.lastAuth.Store(r.Header.Get("Authorization"))
		if status := atomic.LoadInt32(&b.artistStatus); status != http.StatusOK {
			w.WriteHeader(int(status))
			return
		}
		_, _ = w.Write([]byte(`{"id":"a","name":"Aphex Twin","genres":["idm"],"followers":{"total":10}}`))
	})
	b.spotify = httptest.NewServer(mux)
	t.Cleanup(b.spotify.Close)

	return b
}

func (b *backends) config() *domain.Config {
	config := domain.DefaultConfig().WithProxyProvider(b.proxy.URL)
	config.Logger = testLogger()
	config.Storage.Backend = domain.StorageMemory
	config.Spotify.BaseURL = b.spotify.URL
	config.ArtistData.SkipRelated = true
	return config
}

func TestManager_InvalidConfig(t *testing.T) {
	config := domain.DefaultConfig()
	config.Logger = testLogger()
	config.Credentials.Provider = domain.ProviderProxy

	_, err := NewManager(config)
	assert.True(t, domain.IsInvalidConfig(err))
}

func TestManager_Lifecycle(t *testing.T) {
	b := newBackends(t)
	m, err := NewManager(b.config())
	require.NoError(t, err)

	assert.True(t, domain.IsNotStarted(m.SelectArtist(nodeA)))
	assert.True(t, domain.IsNotStarted(m.Stop()))

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, domain.IsAlreadyStarted(m.Start(context.Background())))

	assert.ErrorIs(t, m.SelectArtist(domain.NodeRef{}), domain.ErrInvalidInput)

	require.NoError(t, m.Stop())
	assert.True(t, domain.IsNotStarted(m.Stop()))
	assert.True(t, domain.IsAlreadyStarted(m.Start(context.Background())), "a stopped manager stays stopped")
}

func TestManager_SelectArtistRevealsFetchedData(t *testing.T) {
	b := newBackends(t)
	clock := clockwork.NewFakeClock()
	start := clock.Now()

	m, err := NewManagerWithClock(b.config(), clock)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	completed := make(chan domain.RunEvent, 1)
	_, err = m.OnRunCompleted(func(run domain.RunEvent) { completed <- run })
	require.NoError(t, err)

	require.NoError(t, m.SelectArtist(nodeA))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(reposition)

	select {
	case run := <-completed:
		assert.Equal(t, nodeA.ID, run.Node.ID)
		assert.Equal(t, domain.RunStateRevealed, run.State)
		assert.Equal(t, reposition, run.At.Sub(start))
	case <-time.After(2 * time.Second):
		t.Fatal("run never revealed")
	}

	panel, ok := m.View().Panel()
	require.True(t, ok)
	assert.Equal(t, "Aphex Twin", panel.Data.Name)
	assert.Equal(t, []string{"idm"}, panel.Data.Genres)

	assert.Equal(t, "Bearer first", b.lastAuth.Load())

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.proxyHits))
}

func TestManager_FailedFetchLeavesRunPending(t *testing.T) {
	b := newBackends(t)
	atomic.StoreInt32(&b.artistStatus, http.StatusServiceUnavailable)
	clock := clockwork.NewFakeClock()

	m, err := NewManagerWithClock(b.config(), clock)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	cancelled := make(chan domain.RunEvent, 1)
	_, err = m.OnRunCancelled(func(run domain.RunEvent) { cancelled <- run })
	require.NoError(t, err)

	require.NoError(t, m.SelectArtist(nodeA))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(reposition)

	require.Eventually(t, func() bool {
		runs := m.Runs()
		return len(runs) == 1 && runs[0].State == domain.RunStateAwaitingData
	}, 2*time.Second, time.Millisecond)

	data := &domain.ArtistData{ID: nodeA.ID, Name: "pushed"}
	require.NoError(t, m.ResolveArtist(nodeA, data))

	require.Eventually(t, func() bool { return len(m.History()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, domain.RunStateRevealed, m.History()[0].State)

	require.NoError(t, m.Stop())
	assert.Empty(t, cancelled)
}

func TestManager_TokenOperations(t *testing.T) {
	b := newBackends(t)
	m, err := NewManager(b.config())
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	got := make(chan string, 1)
	m.AcquireToken(context.Background(), func(token string, ok bool) {
		assert.True(t, ok)
		got <- token
	})
	assert.Equal(t, "first", <-got)

	require.Eventually(t, func() bool { return !m.IsAcquiringToken() }, time.Second, time.Millisecond)

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", token)

	require.NoError(t, m.ClearToken(context.Background()))
	require.Eventually(t, func() bool { return !m.IsAcquiringToken() }, time.Second, time.Millisecond)

	token, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", token)
	assert.Equal(t, int32(2), atomic.LoadInt32(&b.proxyHits))
}

func TestNewTokenStore_Backends(t *testing.T) {
	logger := testLogger()

	t.Run("memory", func(t *testing.T) {
		config := domain.DefaultConfig()
		config.Storage.Backend = domain.StorageMemory
		store, err := newTokenStore(config, logger)
		require.NoError(t, err)
		assert.IsType(t, &storage.MemoryStore{}, store)
	})

	t.Run("badger", func(t *testing.T) {
		config := domain.DefaultConfig()
		config.Storage.Path = t.TempDir()
		store, err := newTokenStore(config, logger)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &storage.BadgerStore{}, store)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		config := domain.DefaultConfig().WithRedis("redis://" + mr.Addr())
		store, err := newTokenStore(config, logger)
		require.NoError(t, err)
		defer store.Close()

		require.NoError(t, store.Put(context.Background(), domain.CachedToken{Value: "tok", StoredAt: time.Now()}))
		value, err := mr.Get(domain.DefaultTokenKey)
		require.NoError(t, err)
		assert.Equal(t, "tok", value)
	})

	t.Run("unknown", func(t *testing.T) {
		config := domain.DefaultConfig()
		config.Storage.Backend = "etcd"
		_, err := newTokenStore(config, logger)
		assert.True(t, domain.IsInvalidConfig(err))
	})
}

func TestNewTokenProvider_None(t *testing.T) {
	provider, err := newTokenProvider(domain.DefaultConfig(), testLogger())
	require.NoError(t, err)

	_, err = provider.FetchAccessToken(context.Background())
	assert.ErrorIs(t, err, domain.ErrTokenUnavailable)
}

func TestManager_DisableFetchWaitsForPushedData(t *testing.T) {
	b := newBackends(t)
	config := b.config()
	config.ArtistData.DisableFetch = true
	clock := clockwork.NewFakeClock()

	m, err := NewManagerWithClock(config, clock)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	require.NoError(t, m.SelectArtist(nodeA))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(reposition)

	require.Eventually(t, func() bool {
		runs := m.Runs()
		return len(runs) == 1 && runs[0].State == domain.RunStateAwaitingData
	}, time.Second, time.Millisecond)

	assert.Nil(t, b.lastAuth.Load(), "spotify must not be contacted")
	assert.Equal(t, int32(0), atomic.LoadInt32(&b.proxyHits))
}

func TestManager_StopAbortsHangingTokenExchange(t *testing.T) {
	hit := make(chan struct{}, 1)
	release := make(chan struct{})
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit <- struct{}{}
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(proxy.Close)
	t.Cleanup(func() { close(release) })

	config := domain.DefaultConfig().WithProxyProvider(proxy.URL)
	config.Logger = testLogger()
	config.Storage.Backend = domain.StorageMemory
	config.ArtistData.DisableFetch = true

	m, err := NewManager(config)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	m.AcquireToken(context.Background(), func(string, bool) {})

	select {
	case <-hit:
	case <-time.After(time.Second):
		t.Fatal("token exchange never reached the proxy")
	}
	assert.True(t, m.IsAcquiringToken())

	stopped := make(chan error, 1)
	go func() { stopped <- m.Stop() }()

	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop waited on the token exchange")
	}
	assert.False(t, m.IsAcquiringToken())
}
