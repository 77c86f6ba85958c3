package tokenprovider

import (
	"context"

	"github.com/eleven-am/panther/internal/domain"
)

// None never yields a token; every request goes out unauthenticated.
type None struct{}

func (None) FetchAccessToken(ctx context.Context) (string, error) {
	return "", domain.NewComponentError("token-provider", "fetch", domain.ErrTokenUnavailable)
}
