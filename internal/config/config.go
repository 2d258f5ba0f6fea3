package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the tshard-bench tool configuration.
type Config struct {
	Workload WorkloadConfig `toml:"workload"`
	Shard    ShardConfig    `toml:"shard"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	Logging  LoggingConfig  `toml:"logging"`
}

type WorkloadConfig struct {
	Goroutines int `toml:"goroutines"`
	Ops        int `toml:"ops"` // operations per goroutine
}

type ShardConfig struct {
	SetBuckets int `toml:"set_buckets"`
	MapBuckets int `toml:"map_buckets"`
}

type SnapshotConfig struct {
	// Path of the bbolt database the final map contents are dumped to.
	// Empty disables the dump.
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Workload: WorkloadConfig{
			Goroutines: 8,
			Ops:        10_000,
		},
		Shard: ShardConfig{
			SetBuckets: 64,
			MapBuckets: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML config file over the defaults and validates the result.
// If path is empty, only defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the tool cannot run with.
// All problems are reported at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Workload.Goroutines < 1 {
		errs = append(errs, fmt.Errorf("workload.goroutines must be at least 1, got %d", c.Workload.Goroutines))
	}
	if c.Workload.Ops < 1 {
		errs = append(errs, fmt.Errorf("workload.ops must be at least 1, got %d", c.Workload.Ops))
	}
	if c.Shard.SetBuckets < 1 {
		errs = append(errs, fmt.Errorf("shard.set_buckets must be at least 1, got %d", c.Shard.SetBuckets))
	}
	if c.Shard.MapBuckets < 1 {
		errs = append(errs, fmt.Errorf("shard.map_buckets must be at least 1, got %d", c.Shard.MapBuckets))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not text or json", c.Logging.Format))
	}
	return errors.Join(errs...)
}
