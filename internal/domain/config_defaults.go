package domain

import (
	"path/filepath"
	"time"
)

const (
	DefaultDataDir         = "./data"
	DefaultRepositionDelay = 350 * time.Millisecond
	DefaultFetchTimeout    = 15 * time.Second
	DefaultSpotifyBaseURL  = "https://api.spotify.com"
	DefaultSpotifyTokenURL = "https://accounts.spotify.com/api/token"
)

func DefaultConfig() *Config {
	return &Config{
		DataDir:      DefaultDataDir,
		Credentials:  DefaultCredentialsConfig(),
		Storage:      DefaultStorageConfig(),
		Orchestrator: DefaultOrchestratorConfig(),
		ArtistData:   ArtistDataConfig{},
		Spotify:      DefaultSpotifyConfig(),
		Breaker:      DefaultBreakerConfig(),
		Logging:      DefaultLoggingConfig(),
	}
}

func DefaultCredentialsConfig() CredentialsConfig {
	return CredentialsConfig{
		TokenKey:     DefaultTokenKey,
		Provider:     ProviderNone,
		TokenURL:     DefaultSpotifyTokenURL,
		FetchTimeout: DefaultFetchTimeout,
	}
}

func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Backend: StorageBadger,
		Path:    storagePath(DefaultDataDir),
	}
}

func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		RepositionDelay: DefaultRepositionDelay,
	}
}

func DefaultSpotifyConfig() SpotifyConfig {
	return SpotifyConfig{
		BaseURL: DefaultSpotifyBaseURL,
		Timeout: 10 * time.Second,
	}
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "text",
	}
}

func storagePath(dataDir string) string {
	return filepath.Join(dataDir, "credentials")
}
