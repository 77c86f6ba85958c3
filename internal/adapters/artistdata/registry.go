package artistdata

import (
	"context"
	"log/slog"
	"sync"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/eleven-am/panther/internal/ports"
	"golang.org/x/sync/singleflight"
)

// Registry tracks which nodes have their artist data and runs one-shot continuations
// when a pending node resolves.
type Registry struct {
	fetcher ports.ArtistFetcher
	logger  *slog.Logger

	mu      sync.Mutex
	data    map[string]*domain.ArtistData
	waiters map[string]map[uint64]func(*domain.ArtistData)
	nextID  uint64

	loads singleflight.Group
}

func NewRegistry(fetcher ports.ArtistFetcher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		fetcher: fetcher,
		logger:  logger.With("component", "artist-registry"),
		data:    make(map[string]*domain.ArtistData),
		waiters: make(map[string]map[uint64]func(*domain.ArtistData)),
	}
}

func (r *Registry) Artist(node domain.NodeRef) (*domain.ArtistData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, ok := r.data[node.ID]
	return data, ok
}

func (r *Registry) OnResolved(node domain.NodeRef, fn func(*domain.ArtistData)) func() {
	r.mu.Lock()
	if data, ok := r.data[node.ID]; ok {
		r.mu.Unlock()
		r.safeCall(node, fn, data)
		return func() {}
	}

	r.nextID++
	id := r.nextID
	if r.waiters[node.ID] == nil {
		r.waiters[node.ID] = make(map[uint64]func(*domain.ArtistData))
	}
	r.waiters[node.ID][id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if waiting, ok := r.waiters[node.ID]; ok {
			delete(waiting, id)
			if len(waiting) == 0 {
				delete(r.waiters, node.ID)
			}
		}
	}
}

// Resolve records data for node and fires every continuation waiting on it.
func (r *Registry) Resolve(node domain.NodeRef, data *domain.ArtistData) error {
	if err := node.Validate(); err != nil {
		return err
	}
	if data == nil {
		return domain.NewValidationError("artist", "data cannot be nil")
	}

	r.mu.Lock()
	r.data[node.ID] = data
	waiting := r.waiters[node.ID]
	delete(r.waiters, node.ID)
	r.mu.Unlock()

	r.logger.Debug("artist data resolved", "node", node.String(), "continuations", len(waiting))

	for _, fn := range waiting {
		r.safeCall(node, fn, data)
	}
	return nil
}

// Load fetches node through the fetcher unless it is already resolved. Concurrent loads of
// the same node share one request. A failed load leaves the node pending.
func (r *Registry) Load(ctx context.Context, node domain.NodeRef) (*domain.ArtistData, error) {
	if err := node.Validate(); err != nil {
		return nil, err
	}
	if data, ok := r.Artist(node); ok {
		return data, nil
	}
	if r.fetcher == nil {
		return nil, domain.NewComponentError("artist-registry", "load", domain.ErrInvalidConfig)
	}

	v, err, shared := r.loads.Do(node.ID, func() (interface{}, error) {
		data, err := r.fetcher.FetchArtist(ctx, node.ID)
		if err != nil {
			return nil, err
		}
		if err := r.Resolve(node, data); err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		r.logger.Error("failed to load artist data", "node", node.String(), "error", err, "shared", shared)
		return nil, err
	}
	return v.(*domain.ArtistData), nil
}

// Forget drops resolved data for node. Pending continuations stay registered.
func (r *Registry) Forget(node domain.NodeRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, node.ID)
}

func (r *Registry) Pending(node domain.NodeRef) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters[node.ID])
}

func (r *Registry) safeCall(node domain.NodeRef, fn func(*domain.ArtistData), data *domain.ArtistData) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("artist continuation panicked", "node", node.String(), "panic", rec)
		}
	}()
	fn(data)
}
