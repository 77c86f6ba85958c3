package circuit_breaker

import (
	"context"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/eleven-am/panther/internal/ports"
)

// TokenProvider puts a breaker in front of a token exchange.
type TokenProvider struct {
	next    ports.TokenProvider
	breaker *Breaker
}

func GuardTokenProvider(next ports.TokenProvider, breaker *Breaker) *TokenProvider {
	return &TokenProvider{next: next, breaker: breaker}
}

func (p *TokenProvider) FetchAccessToken(ctx context.Context) (string, error) {
	var token string
	err := p.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		token, err = p.next.FetchAccessToken(ctx)
		return err
	})
	return token, err
}

// ArtistFetcher puts a breaker in front of artist lookups.
type ArtistFetcher struct {
	next    ports.ArtistFetcher
	breaker *Breaker
}

func GuardArtistFetcher(next ports.ArtistFetcher, breaker *Breaker) *ArtistFetcher {
	return &ArtistFetcher{next: next, breaker: breaker}
}

func (f *ArtistFetcher) FetchArtist(ctx context.Context, id string) (*domain.ArtistData, error) {
	var data *domain.ArtistData
	err := f.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		data, err = f.next.FetchArtist(ctx, id)
		return err
	})
	return data, err
}
