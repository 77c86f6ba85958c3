package mocks

import (
	"context"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockTokenProvider struct {
	mock.Mock
}

func (m *MockTokenProvider) FetchAccessToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Get(ctx context.Context) (domain.CachedToken, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.CachedToken), args.Bool(1), args.Error(2)
}

func (m *MockTokenStore) Put(ctx context.Context, token domain.CachedToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTokenStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
