// Package config loads and saves queuectl's queue_config.json.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
)

// ErrUnknownKey is returned by Set when key is not a recognized
// configuration field.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds the recognized keys of queue_config.json. Unknown keys in
// the file are ignored; a missing file yields Default().
type Config struct {
	MaxRetries            uint32   `json:"max_retries"`
	BaseBackoff           float64  `json:"base_backoff"`
	IdleTimeout           float64  `json:"idle_timeout"`
	PollInterval          float64  `json:"poll_interval"`
	DefaultTimeoutSeconds *float64 `json:"default_timeout_seconds"`
}

// Default returns the built-in configuration used when queue_config.json
// is absent.
func Default() Config {
	return Config{
		MaxRetries:   3,
		BaseBackoff:  2.0,
		IdleTimeout:  60,
		PollInterval: 0.5,
	}
}

// Load reads path and merges it over Default(). A missing file is not an
// error: Load returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Set applies a single "config set <key> <val>" assignment to cfg.
//
// Recognized keys match the JSON field names: max_retries, base_backoff,
// idle_timeout, poll_interval, default_timeout_seconds. Set returns
// ErrUnknownKey for anything else, or an error if val does not parse as
// the field's numeric type.
func Set(cfg *Config, key, val string) error {
	switch key {
	case "max_retries":
		n, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return err
		}
		cfg.MaxRetries = uint32(n)
	case "base_backoff":
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		cfg.BaseBackoff = n
	case "idle_timeout":
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		cfg.IdleTimeout = n
	case "poll_interval":
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		cfg.PollInterval = n
	case "default_timeout_seconds":
		if val == "" || val == "null" {
			cfg.DefaultTimeoutSeconds = nil
			return nil
		}
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		cfg.DefaultTimeoutSeconds = &n
	default:
		return ErrUnknownKey
	}
	return nil
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
