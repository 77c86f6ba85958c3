package ports

import "context"

// TokenProvider performs the token exchange with the external token provider.
type TokenProvider interface {
	FetchAccessToken(ctx context.Context) (string, error)
}

// AcquireCallback receives the outcome of an acquisition. ok is false when no token is
// available right now; callers proceed unauthenticated or retry later.
type AcquireCallback func(token string, ok bool)

type TokenSource interface {
	Acquire(ctx context.Context, cb AcquireCallback)
}
