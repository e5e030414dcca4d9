// Package simconfig loads and validates the TOML run configuration.
package simconfig

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the top-level run configuration.
type Config struct {
	// Seed drives every RNG in the run; identical seeds and config must
	// reproduce bit-identical output.
	Seed int64 `toml:"seed"`

	Results   ResultsConfig           `toml:"results"`
	App       AppConfig               `toml:"app"`
	Devices   map[string]DeviceConfig `toml:"devices"`
	Cache     *CacheConfig            `toml:"cache"`
	Placement PlacementConfig         `toml:"placement"`
}

type ResultsConfig struct {
	Path string `toml:"path"`
}

// AppConfig is a tagged variant; Kind selects which fields apply. Only
// "Batch" exists today.
type AppConfig struct {
	Kind string `toml:"kind"`

	Size      int     `toml:"size"`
	RW        float64 `toml:"rw"`
	Iteration int     `toml:"iteration"`
	Batch     int     `toml:"batch"`
	Interval  int64   `toml:"interval"`
	Pattern   string  `toml:"pattern"`
}

// DeviceConfig names either a builtin device kind (device.Builtins) or
// the stem of a CSV table loaded from the device directories.
type DeviceConfig struct {
	Kind        string `toml:"kind"`
	Capacity    int    `toml:"capacity"`
	MaxQueueLen int    `toml:"max_queue_len"`
}

// CacheConfig is optional: a nil *CacheConfig means the simulation
// defaults to a zero-capacity Noop cache, so every access still
// bounces through the cache manager before reaching storage.
type CacheConfig struct {
	Algorithm string `toml:"algorithm"` // "Lru", "Fifo", or "Noop"
	Device    string `toml:"device"`
	Capacity  int    `toml:"capacity"`
}

// PlacementConfig is a tagged variant: "Frequency" uses Interval,
// Reactiveness, and Decay; "Noop" ignores them.
type PlacementConfig struct {
	Kind         string  `toml:"kind"`
	Interval     int64   `toml:"interval"`
	Reactiveness int     `toml:"reactiveness"`
	Decay        float64 `toml:"decay"`
}

// Load decodes and validates the TOML file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("simconfig: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the user-facing configuration errors: missing
// devices, malformed variant tags, invalid pattern enum.
func (c *Config) Validate() error {
	if c.Results.Path == "" {
		return fmt.Errorf("simconfig: results.path is required")
	}
	if c.App.Kind != "Batch" {
		return fmt.Errorf("simconfig: unsupported app kind %q (only \"Batch\" exists)", c.App.Kind)
	}
	if c.App.Size <= 0 {
		return fmt.Errorf("simconfig: app.size must be positive")
	}
	if c.App.Batch <= 0 {
		return fmt.Errorf("simconfig: app.batch must be positive")
	}
	if c.App.Iteration <= 0 {
		return fmt.Errorf("simconfig: app.iteration must be positive")
	}
	switch c.App.Pattern {
	case "zipf", "uniform", "sequential":
	default:
		return fmt.Errorf("simconfig: invalid app.pattern %q", c.App.Pattern)
	}
	if len(c.Devices) == 0 {
		return fmt.Errorf("simconfig: at least one device is required")
	}
	for name, dev := range c.Devices {
		if dev.Kind == "" {
			return fmt.Errorf("simconfig: device %q is missing kind", name)
		}
		if dev.Capacity <= 0 {
			return fmt.Errorf("simconfig: device %q must have positive capacity", name)
		}
	}
	if c.Cache != nil {
		switch c.Cache.Algorithm {
		case "Lru", "Fifo", "Noop":
		default:
			return fmt.Errorf("simconfig: invalid cache.algorithm %q", c.Cache.Algorithm)
		}
		if c.Cache.Device == "" {
			return fmt.Errorf("simconfig: cache.device is required when cache is configured")
		}
	}
	switch c.Placement.Kind {
	case "Frequency", "Noop", "":
	default:
		return fmt.Errorf("simconfig: invalid placement.kind %q", c.Placement.Kind)
	}
	return nil
}
