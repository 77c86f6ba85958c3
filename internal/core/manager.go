package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/eleven-am/panther/internal/adapters/artistdata"
	"github.com/eleven-am/panther/internal/adapters/circuit_breaker"
	"github.com/eleven-am/panther/internal/adapters/credentials"
	"github.com/eleven-am/panther/internal/adapters/events"
	"github.com/eleven-am/panther/internal/adapters/spotify"
	"github.com/eleven-am/panther/internal/adapters/storage"
	"github.com/eleven-am/panther/internal/adapters/tokenprovider"
	"github.com/eleven-am/panther/internal/adapters/view"
	"github.com/eleven-am/panther/internal/domain"
	"github.com/eleven-am/panther/internal/ports"
	"github.com/jonboulle/clockwork"
)

const storeConnectTimeout = 5 * time.Second

type Manager struct {
	config *domain.Config
	logger *slog.Logger
	clock  clockwork.Clock

	store        ports.TokenStore
	credentials  *credentials.Cache
	bus          *events.Bus
	registry     *artistdata.Registry
	graph        *view.Graph
	orchestrator *Orchestrator

	mu          sync.Mutex
	started     bool
	stopped     bool
	ctx         context.Context
	cancel      context.CancelFunc
	stopLoading func()
}

func NewManager(config *domain.Config) (*Manager, error) {
	return NewManagerWithClock(config, clockwork.NewRealClock())
}

// NewManagerWithClock is NewManager with an explicit clock driving the reposition delay
// and the view journal.
func NewManagerWithClock(config *domain.Config, clock clockwork.Clock) (*Manager, error) {
	if config == nil {
		config = domain.DefaultConfig()
	}
	if err := config.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger.With("component", "panther")

	store, err := newTokenStore(config, logger)
	if err != nil {
		return nil, err
	}

	provider, err := newTokenProvider(config, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	breakerConfig := circuit_breaker.Config{
		FailureThreshold: config.Breaker.FailureThreshold,
		Cooldown:         config.Breaker.Cooldown,
	}
	if config.Credentials.Provider != domain.ProviderNone {
		provider = circuit_breaker.GuardTokenProvider(provider,
			circuit_breaker.NewBreaker("token-exchange", breakerConfig, clock, logger))
	}

	cache := credentials.NewCache(store, provider, credentials.Config{
		FetchTimeout:  config.Credentials.FetchTimeout,
		ShareInflight: config.Credentials.ShareInflight,
	}, logger)

	fetcher := spotify.NewFetcher(spotify.Config{
		BaseURL:     config.Spotify.BaseURL,
		Timeout:     config.Spotify.Timeout,
		SkipRelated: config.ArtistData.SkipRelated,
	}, nil, cache, logger)

	guarded := circuit_breaker.GuardArtistFetcher(fetcher,
		circuit_breaker.NewBreaker("spotify", breakerConfig, clock, logger))

	bus := events.NewBus(logger)
	registry := artistdata.NewRegistry(guarded, logger)
	graph := view.NewGraph(clock, logger)

	orchestrator := NewOrchestrator(bus, graph, registry, clock, OrchestratorConfig{
		RepositionDelay:   config.Orchestrator.RepositionDelay,
		SupersedePrevious: config.Orchestrator.SupersedePrevious,
	}, logger)

	return &Manager{
		config:       config,
		logger:       logger,
		clock:        clock,
		store:        store,
		credentials:  cache,
		bus:          bus,
		registry:     registry,
		graph:        graph,
		orchestrator: orchestrator,
	}, nil
}

func newTokenStore(config *domain.Config, logger *slog.Logger) (ports.TokenStore, error) {
	switch config.Storage.Backend {
	case domain.StorageMemory:
		return storage.NewMemoryStore(), nil
	case domain.StorageRedis:
		ctx, cancel := context.WithTimeout(context.Background(), storeConnectTimeout)
		defer cancel()
		return storage.NewRedisStore(ctx, config.Storage.RedisURL, config.Credentials.TokenKey, logger)
	case domain.StorageBadger:
		return storage.NewBadgerStore(storage.BadgerConfig{
			Path:     config.Storage.Path,
			InMemory: config.Storage.InMemory,
			TokenKey: config.Credentials.TokenKey,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidConfig, config.Storage.Backend)
	}
}

func newTokenProvider(config *domain.Config, logger *slog.Logger) (ports.TokenProvider, error) {
	creds := config.Credentials
	client := &http.Client{}

	switch creds.Provider {
	case domain.ProviderNone:
		return tokenprovider.None{}, nil
	case domain.ProviderProxy:
		return tokenprovider.NewProxy(creds.ProxyURL, client, logger), nil
	case domain.ProviderClientCredentials:
		return tokenprovider.NewClientCredentials(creds.ClientID, creds.ClientSecret, creds.TokenURL, client), nil
	default:
		return nil, fmt.Errorf("%w: unknown credentials provider %q", domain.ErrInvalidConfig, creds.Provider)
	}
}

func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started || m.stopped {
		return domain.NewComponentError("manager", "start", domain.ErrAlreadyStarted)
	}

	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.bus.Start(m.ctx); err != nil {
		m.cancel()
		return fmt.Errorf("failed to start event bus: %w", err)
	}

	stopLoading := func() {}
	if !m.config.ArtistData.DisableFetch {
		unsubscribe, err := m.bus.Subscribe(domain.EventSelectArtist, m.loadSelected)
		if err != nil {
			_ = m.bus.Stop()
			m.cancel()
			return fmt.Errorf("failed to watch selections: %w", err)
		}
		stopLoading = unsubscribe
	}

	if err := m.orchestrator.Start(m.ctx); err != nil {
		stopLoading()
		_ = m.bus.Stop()
		m.cancel()
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}

	m.stopLoading = stopLoading
	m.started = true
	m.logger.Info("panther started", "provider", m.config.Credentials.Provider, "storage", m.config.Storage.Backend)
	return nil
}

// Stop cancels live runs, pending loads and any running token exchange, then releases
// the token store. A stopped Manager cannot be started again.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return domain.NewComponentError("manager", "stop", domain.ErrNotStarted)
	}
	m.started = false
	m.stopped = true

	var firstErr error
	if err := m.orchestrator.Stop(); err != nil {
		firstErr = err
	}

	m.stopLoading()
	m.cancel()

	if err := m.bus.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}

	m.credentials.Close()

	if err := m.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	m.logger.Info("panther stopped")
	return firstErr
}

// loadSelected fetches artist data for every selection, independently of the workflow
// run that waits on it.
func (m *Manager) loadSelected(event domain.Event) {
	selection, ok := event.Selection()
	if !ok {
		return
	}
	if _, err := m.registry.Load(m.ctx, selection.Node); err != nil {
		m.logger.Warn("artist data unavailable, run stays pending", "node", selection.Node.String(), "error", err)
	}
}

// SelectArtist publishes a select-artist event for node.
func (m *Manager) SelectArtist(node domain.NodeRef) error {
	if err := node.Validate(); err != nil {
		return err
	}
	return m.bus.Publish(domain.NewSelectionEvent(node, m.clock.Now()))
}

// ResolveArtist hands in artist data obtained outside the built-in fetcher.
func (m *Manager) ResolveArtist(node domain.NodeRef, data *domain.ArtistData) error {
	return m.registry.Resolve(node, data)
}

func (m *Manager) AcquireToken(ctx context.Context, cb ports.AcquireCallback) {
	m.credentials.Acquire(ctx, cb)
}

func (m *Manager) Token(ctx context.Context) (string, error) {
	return m.credentials.Token(ctx)
}

func (m *Manager) ClearToken(ctx context.Context) error {
	return m.credentials.Clear(ctx)
}

func (m *Manager) IsAcquiringToken() bool {
	return m.credentials.IsAcquiring()
}

func (m *Manager) OnRunCompleted(handler func(domain.RunEvent)) (func(), error) {
	return m.onRun(domain.EventRunRevealed, handler)
}

func (m *Manager) OnRunCancelled(handler func(domain.RunEvent)) (func(), error) {
	return m.onRun(domain.EventRunCancelled, handler)
}

func (m *Manager) onRun(eventType string, handler func(domain.RunEvent)) (func(), error) {
	if handler == nil {
		return nil, domain.NewComponentError("manager", "subscribe", domain.ErrInvalidInput)
	}
	return m.bus.Subscribe(eventType, func(event domain.Event) {
		if run, ok := event.Run(); ok {
			handler(run)
		}
	})
}

func (m *Manager) Subscribe(pattern string, handler ports.EventHandler) (func(), error) {
	return m.bus.Subscribe(pattern, handler)
}

func (m *Manager) Runs() []domain.WorkflowRun {
	return m.orchestrator.Runs()
}

func (m *Manager) History() []domain.WorkflowRun {
	return m.orchestrator.History()
}

func (m *Manager) View() *view.Graph {
	return m.graph
}

func (m *Manager) Registry() *artistdata.Registry {
	return m.registry
}

func (m *Manager) Config() *domain.Config {
	return m.config
}
