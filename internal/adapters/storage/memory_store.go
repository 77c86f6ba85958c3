package storage

import (
	"context"
	"sync"
	"time"

	"github.com/eleven-am/panther/internal/domain"
)

// MemoryStore is a process-local TokenStore. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	token  domain.CachedToken
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (domain.CachedToken, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.CachedToken{}, false, domain.ErrStoreClosed
	}
	return s.token, !s.token.IsZero(), nil
}

func (s *MemoryStore) Put(ctx context.Context, token domain.CachedToken) error {
	if token.IsZero() {
		return domain.NewComponentError("memory-store", "put", domain.ErrInvalidInput)
	}
	if token.StoredAt.IsZero() {
		token.StoredAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	s.token = token
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	s.token = domain.CachedToken{}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
