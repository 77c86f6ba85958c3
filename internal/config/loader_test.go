package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultTokenKey, config.Credentials.TokenKey)
	assert.Equal(t, domain.ProviderNone, config.Credentials.Provider)
	assert.Equal(t, domain.DefaultFetchTimeout, config.Credentials.FetchTimeout)
	assert.Equal(t, domain.StorageBadger, config.Storage.Backend)
	assert.Equal(t, filepath.Join(domain.DefaultDataDir, "credentials"), config.Storage.Path)
	assert.Equal(t, 350*time.Millisecond, config.Orchestrator.RepositionDelay)
	assert.False(t, config.Orchestrator.SupersedePrevious)
	assert.NotNil(t, config.Logger)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "panther.yaml", `
data_dir: /var/lib/panther
credentials:
  provider: proxy
  proxy_url: https://example.com/api/spotify/token
  share_inflight: true
  fetch_timeout: 3s
orchestrator:
  reposition_delay: 500ms
  supersede_previous: true
artist_data:
  skip_related: true
logging:
  level: debug
  format: json
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, domain.ProviderProxy, config.Credentials.Provider)
	assert.Equal(t, "https://example.com/api/spotify/token", config.Credentials.ProxyURL)
	assert.True(t, config.Credentials.ShareInflight)
	assert.Equal(t, 3*time.Second, config.Credentials.FetchTimeout)
	assert.Equal(t, 500*time.Millisecond, config.Orchestrator.RepositionDelay)
	assert.True(t, config.Orchestrator.SupersedePrevious)
	assert.True(t, config.ArtistData.SkipRelated)
	assert.Equal(t, "/var/lib/panther/credentials", config.Storage.Path)
	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, domain.DefaultSpotifyBaseURL, config.Spotify.BaseURL)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "panther.json", `{"storage": {"backend": "memory"}, "credentials": {"token_key": "custom"}}`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.StorageMemory, config.Storage.Backend)
	assert.Equal(t, "custom", config.Credentials.TokenKey)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "panther.yaml", `
credentials:
  provider: proxy
  proxy_url: https://file.example.com/token
storage:
  backend: memory
`)

	t.Setenv("PANTHER_CREDENTIALS_PROXY_URL", "https://env.example.com/token")
	t.Setenv("PANTHER_ORCHESTRATOR_REPOSITION_DELAY", "1s")
	t.Setenv("PANTHER_ARTIST_DATA_SKIP_RELATED", "true")

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/token", config.Credentials.ProxyURL)
	assert.Equal(t, time.Second, config.Orchestrator.RepositionDelay)
	assert.True(t, config.ArtistData.SkipRelated)
	assert.Equal(t, domain.StorageMemory, config.Storage.Backend)
}

func TestLoad_IgnoresUnprefixedEnvironment(t *testing.T) {
	t.Setenv("PATH", "/usr/bin:/bin")
	t.Setenv("BACKEND", "memory")
	t.Setenv("TIMEOUT", "1ns")
	t.Setenv("PROVIDER", "proxy")
	t.Setenv("LEVEL", "debug")
	t.Setenv("COOLDOWN", "1ns")
	t.Setenv("DATA_DIR", "/elsewhere")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(domain.DefaultDataDir, "credentials"), config.Storage.Path)
	assert.Equal(t, domain.StorageBadger, config.Storage.Backend)
	assert.Equal(t, domain.DefaultSpotifyConfig().Timeout, config.Spotify.Timeout)
	assert.Equal(t, domain.ProviderNone, config.Credentials.Provider)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, domain.DefaultBreakerConfig().Cooldown, config.Breaker.Cooldown)
	assert.Equal(t, domain.DefaultDataDir, config.DataDir)
}

func TestLoad_PrefixedKeys(t *testing.T) {
	t.Setenv("PANTHER_DATA_DIR", "/srv/panther")
	t.Setenv("PANTHER_STORAGE_BACKEND", "memory")
	t.Setenv("PANTHER_SPOTIFY_BASE_URL", "http://localhost:9000")
	t.Setenv("PANTHER_BREAKER_FAILURE_THRESHOLD", "2")
	t.Setenv("PANTHER_CREDENTIALS_SHARE_INFLIGHT", "true")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/srv/panther", config.DataDir)
	assert.Equal(t, domain.StorageMemory, config.Storage.Backend)
	assert.Equal(t, "http://localhost:9000", config.Spotify.BaseURL)
	assert.Equal(t, 2, config.Breaker.FailureThreshold)
	assert.True(t, config.Credentials.ShareInflight)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "credentials: [unterminated"))
		assert.True(t, domain.IsInvalidConfig(err))
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "credentials:\n  provider: client_credentials\n"))
		assert.True(t, domain.IsInvalidConfig(err))
	})

	t.Run("bad environment value", func(t *testing.T) {
		t.Setenv("PANTHER_CREDENTIALS_FETCH_TIMEOUT", "soon")
		_, err := Load("")
		assert.True(t, domain.IsInvalidConfig(err))
	})
}
