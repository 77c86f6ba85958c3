package panther

import (
	"log/slog"
	"time"

	"github.com/eleven-am/panther/internal/config"
	"github.com/eleven-am/panther/internal/domain"
)

type Config = domain.Config

type CredentialsConfig = domain.CredentialsConfig

type StorageConfig = domain.StorageConfig

type OrchestratorConfig = domain.OrchestratorConfig

type ArtistDataConfig = domain.ArtistDataConfig

type SpotifyConfig = domain.SpotifyConfig

type LoggingConfig = domain.LoggingConfig

type ProviderType = domain.ProviderType

const (
	ProviderNone              ProviderType = domain.ProviderNone
	ProviderProxy             ProviderType = domain.ProviderProxy
	ProviderClientCredentials ProviderType = domain.ProviderClientCredentials
)

type StorageBackend = domain.StorageBackend

const (
	StorageBadger StorageBackend = domain.StorageBadger
	StorageRedis  StorageBackend = domain.StorageRedis
	StorageMemory StorageBackend = domain.StorageMemory
)

func DefaultConfig() *Config {
	return domain.DefaultConfig()
}

// LoadConfig reads a YAML or JSON file, when path is set, and applies PANTHER_*
// environment overrides on top.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

type ConfigBuilder struct {
	config *Config
}

func NewConfigBuilder(dataDir string) *ConfigBuilder {
	config := DefaultConfig()
	config.DataDir = dataDir
	config.Storage.Path = ""
	return &ConfigBuilder{config: config}
}

func (cb *ConfigBuilder) WithLogger(logger *slog.Logger) *ConfigBuilder {
	cb.config.Logger = logger
	return cb
}

func (cb *ConfigBuilder) WithProxyProvider(url string) *ConfigBuilder {
	cb.config.WithProxyProvider(url)
	return cb
}

func (cb *ConfigBuilder) WithClientCredentials(clientID, clientSecret string) *ConfigBuilder {
	cb.config.WithClientCredentials(clientID, clientSecret)
	return cb
}

func (cb *ConfigBuilder) WithTokenKey(key string) *ConfigBuilder {
	cb.config.Credentials.TokenKey = key
	return cb
}

func (cb *ConfigBuilder) WithFetchTimeout(timeout time.Duration) *ConfigBuilder {
	cb.config.Credentials.FetchTimeout = timeout
	return cb
}

func (cb *ConfigBuilder) WithShareInflight(enabled bool) *ConfigBuilder {
	cb.config.Credentials.ShareInflight = enabled
	return cb
}

func (cb *ConfigBuilder) WithRedis(url string) *ConfigBuilder {
	cb.config.WithRedis(url)
	return cb
}

func (cb *ConfigBuilder) WithMemoryStorage() *ConfigBuilder {
	cb.config.Storage.Backend = StorageMemory
	return cb
}

func (cb *ConfigBuilder) WithRepositionDelay(delay time.Duration) *ConfigBuilder {
	cb.config.WithRepositionDelay(delay)
	return cb
}

func (cb *ConfigBuilder) WithSupersedePrevious(enabled bool) *ConfigBuilder {
	cb.config.Orchestrator.SupersedePrevious = enabled
	return cb
}

func (cb *ConfigBuilder) WithSkipRelated(skip bool) *ConfigBuilder {
	cb.config.ArtistData.SkipRelated = skip
	return cb
}

func (cb *ConfigBuilder) WithoutFetch() *ConfigBuilder {
	cb.config.ArtistData.DisableFetch = true
	return cb
}

func (cb *ConfigBuilder) WithSpotifyBaseURL(url string) *ConfigBuilder {
	cb.config.Spotify.BaseURL = url
	return cb
}

func (cb *ConfigBuilder) Build() *Config {
	return cb.config
}
