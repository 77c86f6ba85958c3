package ports

import (
	"context"

	"github.com/eleven-am/panther/internal/domain"
)

// TokenStore persists the single cached access token across process restarts.
type TokenStore interface {
	// Get returns the cached token. ok is false when nothing is stored.
	Get(ctx context.Context) (token domain.CachedToken, ok bool, err error)
	Put(ctx context.Context, token domain.CachedToken) error
	Clear(ctx context.Context) error
	Close() error
}
