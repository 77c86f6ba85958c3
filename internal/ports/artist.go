package ports

import (
	"context"

	"github.com/eleven-am/panther/internal/domain"
)

type ArtistDataSource interface {
	// Artist returns the data for node if it has already arrived.
	Artist(node domain.NodeRef) (*domain.ArtistData, bool)

	// OnResolved registers a one-shot continuation for node. It runs synchronously when
	// the data is already there, otherwise the moment it resolves. cancel drops the
	// registration if it has not fired yet.
	OnResolved(node domain.NodeRef, fn func(*domain.ArtistData)) (cancel func())
}

type ArtistFetcher interface {
	FetchArtist(ctx context.Context, id string) (*domain.ArtistData, error)
}
