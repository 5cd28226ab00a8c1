package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering sources, low to high precedence:
//  1. defaults (New())
//  2. YAML file named by PROPLINE_CONFIG, if set
//  3. environment variables with prefix PROPLINE_
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PROPLINE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// PROPLINE_QUEUE_SIZE -> queue_size; underscores stay so the env
	// keys line up with the koanf struct tags.
	envProvider := env.Provider("PROPLINE_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "propline_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Store {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite store needs sqlite_path", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}
