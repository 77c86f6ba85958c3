package domain

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dario.cat/mergo"
)

type Config struct {
	DataDir string       `json:"data_dir" yaml:"data_dir" split_words:"true"`
	Logger  *slog.Logger `json:"-" yaml:"-" ignored:"true"`

	Credentials  CredentialsConfig  `json:"credentials" yaml:"credentials"`
	Storage      StorageConfig      `json:"storage" yaml:"storage"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`
	ArtistData   ArtistDataConfig   `json:"artist_data" yaml:"artist_data" split_words:"true"`
	Spotify      SpotifyConfig      `json:"spotify" yaml:"spotify"`
	Breaker      BreakerConfig      `json:"breaker" yaml:"breaker"`
	Logging      LoggingConfig      `json:"logging" yaml:"logging"`
}

type ProviderType string

const (
	ProviderNone              ProviderType = "none"
	ProviderProxy             ProviderType = "proxy"
	ProviderClientCredentials ProviderType = "client_credentials"
)

type CredentialsConfig struct {
	TokenKey     string        `json:"token_key" yaml:"token_key" split_words:"true"`
	Provider     ProviderType  `json:"provider" yaml:"provider" split_words:"true"`
	ProxyURL     string        `json:"proxy_url,omitempty" yaml:"proxy_url,omitempty" split_words:"true"`
	ClientID     string        `json:"client_id,omitempty" yaml:"client_id,omitempty" split_words:"true"`
	ClientSecret string        `json:"-" yaml:"client_secret,omitempty" split_words:"true"`
	TokenURL     string        `json:"token_url,omitempty" yaml:"token_url,omitempty" split_words:"true"`
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout" split_words:"true"`

	// ShareInflight queues callers that arrive while a fetch is running and hands them
	// its outcome. When false they are refused immediately.
	ShareInflight bool `json:"share_inflight" yaml:"share_inflight" split_words:"true"`
}

type StorageBackend string

const (
	StorageBadger StorageBackend = "badger"
	StorageRedis  StorageBackend = "redis"
	StorageMemory StorageBackend = "memory"
)

type StorageConfig struct {
	Backend  StorageBackend `json:"backend" yaml:"backend" split_words:"true"`
	Path     string         `json:"path,omitempty" yaml:"path,omitempty" split_words:"true"`
	InMemory bool           `json:"in_memory" yaml:"in_memory" split_words:"true"`
	RedisURL string         `json:"redis_url,omitempty" yaml:"redis_url,omitempty" split_words:"true"`
}

type OrchestratorConfig struct {
	RepositionDelay time.Duration `json:"reposition_delay" yaml:"reposition_delay" split_words:"true"`

	// SupersedePrevious cancels in-flight runs when a newer selection arrives.
	SupersedePrevious bool `json:"supersede_previous" yaml:"supersede_previous" split_words:"true"`
}

type ArtistDataConfig struct {
	SkipRelated bool `json:"skip_related" yaml:"skip_related" split_words:"true"`

	// DisableFetch stops selections from triggering Spotify lookups; data then only
	// arrives through Manager.ResolveArtist.
	DisableFetch bool `json:"disable_fetch" yaml:"disable_fetch" split_words:"true"`
}

type SpotifyConfig struct {
	BaseURL string        `json:"base_url" yaml:"base_url" split_words:"true"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" split_words:"true"`
}

// BreakerConfig guards the token exchange and Spotify lookups. After FailureThreshold
// consecutive failures the upstream is left alone for Cooldown.
type BreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold" yaml:"failure_threshold" split_words:"true"`
	Cooldown         time.Duration `json:"cooldown" yaml:"cooldown" split_words:"true"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" split_words:"true"`
	Format string `json:"format" yaml:"format" split_words:"true"`
}

// ApplyDefaults fills every zero-valued field from DefaultConfig, leaving explicit
// values untouched.
func (c *Config) ApplyDefaults() error {
	defaults := DefaultConfig()
	if c.DataDir != "" && c.Storage.Path == "" {
		defaults.Storage.Path = storagePath(c.DataDir)
	}
	if err := mergo.Merge(c, *defaults); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Credentials.TokenKey) == "" {
		return fmt.Errorf("%w: credentials.token_key is required", ErrInvalidConfig)
	}

	switch c.Credentials.Provider {
	case ProviderNone:
	case ProviderProxy:
		if c.Credentials.ProxyURL == "" {
			return fmt.Errorf("%w: credentials.proxy_url is required for the proxy provider", ErrInvalidConfig)
		}
	case ProviderClientCredentials:
		if c.Credentials.ClientID == "" || c.Credentials.ClientSecret == "" {
			return fmt.Errorf("%w: client_credentials provider needs client_id and client_secret", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown credentials provider %q", ErrInvalidConfig, c.Credentials.Provider)
	}

	if c.Credentials.FetchTimeout < 0 {
		return fmt.Errorf("%w: credentials.fetch_timeout cannot be negative", ErrInvalidConfig)
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageBadger:
		if c.Storage.Path == "" && !c.Storage.InMemory {
			return fmt.Errorf("%w: storage.path is required for badger", ErrInvalidConfig)
		}
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("%w: storage.redis_url is required for redis", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if c.Orchestrator.RepositionDelay < 0 {
		return fmt.Errorf("%w: orchestrator.reposition_delay cannot be negative", ErrInvalidConfig)
	}

	if c.Breaker.FailureThreshold < 0 || c.Breaker.Cooldown < 0 {
		return fmt.Errorf("%w: breaker settings cannot be negative", ErrInvalidConfig)
	}

	if c.Spotify.BaseURL == "" {
		return fmt.Errorf("%w: spotify.base_url is required", ErrInvalidConfig)
	}

	return nil
}

func (c *Config) WithProxyProvider(url string) *Config {
	c.Credentials.Provider = ProviderProxy
	c.Credentials.ProxyURL = url
	return c
}

func (c *Config) WithClientCredentials(clientID, clientSecret string) *Config {
	c.Credentials.Provider = ProviderClientCredentials
	c.Credentials.ClientID = clientID
	c.Credentials.ClientSecret = clientSecret
	return c
}

func (c *Config) WithRedis(url string) *Config {
	c.Storage.Backend = StorageRedis
	c.Storage.RedisURL = url
	return c
}

func (c *Config) WithRepositionDelay(d time.Duration) *Config {
	c.Orchestrator.RepositionDelay = d
	return c
}
