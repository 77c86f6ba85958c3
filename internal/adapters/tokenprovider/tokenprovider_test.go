package tokenprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxy_FetchAccessToken(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"snake case", `{"access_token":"tok123"}`, "tok123"},
		{"camel case", `{"accessToken":"tokABC"}`, "tokABC"},
		{"plain token field", `{"token":"tokXYZ"}`, "tokXYZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			token, err := NewProxy(server.URL, server.Client(), nil).FetchAccessToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, token)
		})
	}
}

func TestProxy_Failures(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewProxy(server.URL, nil, nil).FetchAccessToken(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("empty token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := NewProxy(server.URL, nil, nil).FetchAccessToken(context.Background())
		assert.ErrorIs(t, err, domain.ErrTokenUnavailable)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		_, err := NewProxy(server.URL, nil, nil).FetchAccessToken(context.Background())
		assert.True(t, domain.IsComponentError(err))
	})
}

func TestClientCredentials_FetchAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"app-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	provider := NewClientCredentials("id", "secret", server.URL, server.Client())
	token, err := provider.FetchAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "app-token", token)
}

func TestClientCredentials_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer server.Close()

	_, err := NewClientCredentials("id", "bad", server.URL, nil).FetchAccessToken(context.Background())
	assert.True(t, domain.IsComponentError(err))
}

func TestNone_AlwaysUnavailable(t *testing.T) {
	_, err := None{}.FetchAccessToken(context.Background())
	assert.ErrorIs(t, err, domain.ErrTokenUnavailable)
}
