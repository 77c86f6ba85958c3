package mocks

import (
	"context"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockArtistFetcher struct {
	mock.Mock
}

func (m *MockArtistFetcher) FetchArtist(ctx context.Context, id string) (*domain.ArtistData, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ArtistData), args.Error(1)
}

type MockGraphView struct {
	mock.Mock
}

func (m *MockGraphView) MarkSelected(node domain.NodeRef) {
	m.Called(node)
}

func (m *MockGraphView) RepositionSelectedToCenter() {
	m.Called()
}

func (m *MockGraphView) RevealArtistData(node domain.NodeRef, data *domain.ArtistData) {
	m.Called(node, data)
}
