// Package config loads a domain.Config from an optional YAML or JSON file and PANTHER_*
// environment variables. Environment values win over the file, and anything still unset
// takes its default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/eleven-am/panther/internal/xjson"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "PANTHER"

func Load(path string) (*domain.Config, error) {
	config := &domain.Config{}

	if path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, fmt.Errorf("%w: environment: %v", domain.ErrInvalidConfig, err)
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadFile(path string, config *domain.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = xjson.Unmarshal(data, config)
	default:
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, path, err)
	}
	return nil
}
