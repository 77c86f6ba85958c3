// Package credentials owns the cached Spotify access token and makes sure at most one
// token exchange is in flight at any time.
//
// A cache hit is always delivered asynchronously so callers see the same scheduling
// whether or not a network call was needed. A miss while an exchange is already running
// is refused with ok == false; the access token is optional and callers can proceed
// unauthenticated.
package credentials

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/eleven-am/panther/internal/ports"
)

type Config struct {
	FetchTimeout  time.Duration
	ShareInflight bool
}

type resultFunc func(token string, err error)

type Cache struct {
	store    ports.TokenStore
	provider ports.TokenProvider
	config   Config
	logger   *slog.Logger

	mu       sync.Mutex
	fetching bool
	waiters  []resultFunc

	// ctx outlives individual callers; Close cancels it to abort a running exchange.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCache(store ports.TokenStore, provider ports.TokenProvider, config Config, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Cache{
		store:    store,
		provider: provider,
		config:   config,
		logger:   logger.With("component", "credential-cache"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Acquire delivers the access token to cb. See the package documentation for the
// delivery rules. When the exchange fails, the caller that triggered it is not called
// back unless ShareInflight is set.
func (c *Cache) Acquire(ctx context.Context, cb ports.AcquireCallback) {
	if cb == nil {
		cb = func(string, bool) {}
	}

	c.acquire(ctx, func(token string, err error) {
		if err == nil {
			cb(token, true)
			return
		}
		if domain.IsAcquisitionError(err) && !c.config.ShareInflight {
			return
		}
		cb("", false)
	})
}

// Token is the blocking form of Acquire. It returns domain.ErrAcquisitionInFlight when
// another exchange is running, an *domain.AcquisitionError when the exchange fails, and
// ctx.Err() when ctx ends first.
func (c *Cache) Token(ctx context.Context) (string, error) {
	type result struct {
		token string
		err   error
	}

	ch := make(chan result, 1)
	c.acquire(ctx, func(token string, err error) {
		ch <- result{token: token, err: err}
	})

	select {
	case r := <-ch:
		return r.token, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Cache) acquire(ctx context.Context, deliver resultFunc) {
	c.mu.Lock()

	token, ok, err := c.store.Get(ctx)
	if err != nil {
		c.logger.Warn("failed to read cached token, treating as miss", "error", err)
		ok = false
	}

	if ok {
		c.mu.Unlock()
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.safeDeliver(deliver, token.Value, nil)
		}()
		return
	}

	if c.fetching {
		if c.config.ShareInflight {
			c.waiters = append(c.waiters, deliver)
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		deliver("", domain.ErrAcquisitionInFlight)
		return
	}

	c.fetching = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.fetch(ctx, deliver)
}

func (c *Cache) fetch(ctx context.Context, deliver resultFunc) {
	defer c.wg.Done()

	var token string
	var err error

	defer func() {
		for _, waiter := range c.settle() {
			c.safeDeliver(waiter, token, err)
		}
	}()

	token, err = c.exchange(ctx)
	if err != nil {
		c.logger.Error("error fetching token from server", "error", err)
		c.safeDeliver(deliver, "", err)
		return
	}

	if perr := c.store.Put(ctx, domain.CachedToken{Value: token, StoredAt: time.Now()}); perr != nil {
		c.logger.Error("failed to persist access token", "error", perr)
	} else {
		c.logger.Info("access token cached")
	}

	c.safeDeliver(deliver, token, nil)
}

func (c *Cache) exchange(ctx context.Context) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	if c.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.FetchTimeout)
		defer cancel()
	}

	token, err := c.provider.FetchAccessToken(ctx)
	if err != nil {
		return "", domain.NewAcquisitionError(err)
	}
	if token == "" {
		return "", domain.NewAcquisitionError(domain.ErrTokenUnavailable)
	}
	return token, nil
}

// settle clears the in-flight flag and hands back anyone queued behind the exchange.
func (c *Cache) settle() []resultFunc {
	c.mu.Lock()
	defer c.mu.Unlock()

	waiters := c.waiters
	c.waiters = nil
	c.fetching = false
	return waiters
}

func (c *Cache) safeDeliver(fn resultFunc, token string, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("token callback panicked", "panic", r)
		}
	}()
	fn(token, err)
}

func (c *Cache) IsAcquiring() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetching
}

// Clear drops the cached token so the next Acquire performs a fresh exchange.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Clear(ctx)
}

// Wait blocks until every pending exchange and deferred delivery has finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// Close aborts a running exchange, whatever context its caller passed, and waits for
// outstanding deliveries. Acquisitions after Close fail.
func (c *Cache) Close() {
	c.cancel()
	c.wg.Wait()
}
