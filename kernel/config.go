package kernel

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/tailored-agentic-units/turnstate/state"
	"github.com/tailored-agentic-units/turnstate/storage"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "TURNSTATE_"

const defaultObserver = "slog"

// Config holds initialization parameters for the runtime and its subsystems.
type Config struct {
	Storage  storage.Config `json:"storage" envPrefix:"STORAGE_"`
	State    state.Config   `json:"state" envPrefix:"STATE_"`
	Observer string         `json:"observer,omitempty" env:"OBSERVER"`
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Storage:  storage.DefaultConfig(),
		State:    state.DefaultConfig(),
		Observer: defaultObserver,
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Storage.Merge(&source.Storage)
	c.State.Merge(&source.State)

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// LoadConfig merges a JSON config file over the defaults, then applies
// TURNSTATE_* environment overrides. An empty filename skips the file.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		var loaded Config
		if err := json.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.Merge(&loaded)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides cfg fields from TURNSTATE_* environment variables, for
// example TURNSTATE_STORAGE_BACKEND or TURNSTATE_STATE_LAST_WRITER_WINS.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
