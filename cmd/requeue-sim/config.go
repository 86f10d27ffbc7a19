package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"andy.dev/requeue"
)

// Config is the YAML policy file accepted by --policy. Durations are Go
// duration strings such as "250ms". Numeric fields left out of the file keep
// their current value; an explicit zero is applied.
type Config struct {
	Label      string   `yaml:"label,omitempty"`
	Keys       *int     `yaml:"keys,omitempty"`
	MaxRetries *int     `yaml:"max_retries,omitempty"`
	RetryDelay string   `yaml:"retry_delay,omitempty"`
	FailRate   *float64 `yaml:"fail_rate,omitempty"`
	FatalRate  *float64 `yaml:"fatal_rate,omitempty"`
	Latency    string   `yaml:"latency,omitempty"`
	Seed       *int64   `yaml:"seed,omitempty"`
}

// Settings are the resolved parameters of a simulation.
type Settings struct {
	Label      string
	Keys       int
	MaxRetries int
	RetryDelay time.Duration
	FailRate   float64
	FatalRate  float64
	Latency    time.Duration
	Seed       int64
}

// DefaultSettings returns the settings used when neither a policy file nor a
// flag sets a value.
func DefaultSettings() Settings {
	return Settings{
		Label:      "requeue-sim",
		Keys:       20,
		MaxRetries: requeue.DefaultMaxRetries,
		RetryDelay: 100 * time.Millisecond,
		FailRate:   0.3,
		Latency:    20 * time.Millisecond,
		Seed:       1,
	}
}

// LoadConfig reads and parses a policy file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses a policy document. Unknown fields are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}
	return &cfg, nil
}

// Apply overlays the values set in cfg onto s.
func (cfg *Config) Apply(s Settings) (Settings, error) {
	if cfg.Label != "" {
		s.Label = cfg.Label
	}
	if cfg.Keys != nil {
		s.Keys = *cfg.Keys
	}
	if cfg.MaxRetries != nil {
		s.MaxRetries = *cfg.MaxRetries
	}
	if cfg.RetryDelay != "" {
		d, err := time.ParseDuration(cfg.RetryDelay)
		if err != nil {
			return s, fmt.Errorf("invalid retry_delay: %w", err)
		}
		s.RetryDelay = d
	}
	if cfg.FailRate != nil {
		s.FailRate = *cfg.FailRate
	}
	if cfg.FatalRate != nil {
		s.FatalRate = *cfg.FatalRate
	}
	if cfg.Latency != "" {
		d, err := time.ParseDuration(cfg.Latency)
		if err != nil {
			return s, fmt.Errorf("invalid latency: %w", err)
		}
		s.Latency = d
	}
	if cfg.Seed != nil {
		s.Seed = *cfg.Seed
	}
	return s, nil
}

// Validate checks that the settings describe a runnable simulation.
func (s Settings) Validate() error {
	switch {
	case s.Keys < 0:
		return fmt.Errorf("keys must not be negative, got %d", s.Keys)
	case s.MaxRetries < 0:
		return fmt.Errorf("max retries must not be negative, got %d", s.MaxRetries)
	case s.RetryDelay < 0:
		return fmt.Errorf("retry delay must not be negative, got %s", s.RetryDelay)
	case s.Latency < 0:
		return fmt.Errorf("latency must not be negative, got %s", s.Latency)
	case s.FailRate < 0 || s.FatalRate < 0 || s.FailRate+s.FatalRate > 1:
		return fmt.Errorf("fail rate %.2f and fatal rate %.2f must be non-negative and sum to at most 1", s.FailRate, s.FatalRate)
	}
	return nil
}

// Policy converts the settings into a run policy logging to logger.
func (s Settings) Policy(logger *slog.Logger) requeue.Policy {
	return requeue.Policy{
		MaxRetries: s.MaxRetries,
		RetryDelay: s.RetryDelay,
		Label:      s.Label,
		Logger:     logger,
	}
}
