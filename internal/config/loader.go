package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if REHEARSE_CONFIG is set
//  3. env (prefix REHEARSE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("REHEARSE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: REHEARSE_ADDR, REHEARSE_QUEUE_SIZE, ...
	// Map env keys like REHEARSE_QUEUE_SIZE -> queue_size (flat keys,
	// underscores preserved to match the koanf tags on the struct).
	envProvider := env.Provider("REHEARSE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "rehearse_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.EvalBaseURL == "" {
		return fmt.Errorf("%w: eval_base_url must not be empty", ErrInvalidConfig)
	}
	if cfg.EventQueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if cfg.TickIntervalMS <= 0 {
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
