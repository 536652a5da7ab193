// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of the defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Supported store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver picks the storage backend: sqlite, bolt or memory.
	StoreDriver string `koanf:"store_driver"`

	// StorePath is the database file for the sqlite and bolt drivers.
	StorePath string `koanf:"store_path"`

	// SeedFile points at a YAML seed; empty uses the embedded sample FAQs.
	SeedFile string `koanf:"seed_file"`

	// SeedOnEmpty loads the seed when the store has no entries at start.
	SeedOnEmpty bool `koanf:"seed_on_empty"`

	// ScoringWorkers bounds the goroutines used to score one snapshot.
	ScoringWorkers int `koanf:"scoring_workers"`

	// ParallelThreshold is the snapshot size at which scoring fans out.
	ParallelThreshold int `koanf:"parallel_threshold"`

	// TokenCacheSize is the LRU capacity for tokenized entry fields.
	TokenCacheSize int `koanf:"token_cache_size"`

	// LogQueueSize bounds the interaction log queue.
	LogQueueSize int `koanf:"log_queue_size"`

	// LogWorkers sets the number of interaction log writers.
	LogWorkers int `koanf:"log_workers"`

	// LogWriteTimeoutMS caps a single detached interaction append.
	LogWriteTimeoutMS int `koanf:"log_write_timeout_ms"`

	// MaxQuestionLength caps the ask question length in runes.
	MaxQuestionLength int `koanf:"max_question_length"`

	// AdminToken guards admin routes; empty disables them.
	AdminToken string `koanf:"admin_token"`

	// RecentLimit and TopEntriesLimit size the analytics lists.
	RecentLimit     int `koanf:"recent_limit"`
	TopEntriesLimit int `koanf:"top_entries_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		StoreDriver:       DriverSQLite,
		StorePath:         "askdesk.db",
		SeedOnEmpty:       true,
		ScoringWorkers:    runtime.NumCPU(),
		ParallelThreshold: 64,
		TokenCacheSize:    4096,
		LogQueueSize:      10_000,
		LogWorkers:        2,
		LogWriteTimeoutMS: 2000,
		MaxQuestionLength: 1000,
		RecentLimit:       10,
		TopEntriesLimit:   10,
	}
}

// LogWriteTimeout returns LogWriteTimeoutMS as a duration.
func (c *Config) LogWriteTimeout() time.Duration {
	return time.Duration(c.LogWriteTimeoutMS) * time.Millisecond
}

// Validate checks field combinations that koanf cannot.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != DriverSQLite && c.StoreDriver != DriverBolt && c.StoreDriver != DriverMemory:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDriver != DriverMemory && strings.TrimSpace(c.StorePath) == "":
		return fmt.Errorf("%w: store_path must not be empty for %s", ErrInvalidConfig, c.StoreDriver)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	case c.ScoringWorkers < 1, c.ParallelThreshold < 1, c.TokenCacheSize < 1,
		c.LogQueueSize < 1, c.LogWorkers < 1, c.LogWriteTimeoutMS < 1,
		c.MaxQuestionLength < 1, c.RecentLimit < 1, c.TopEntriesLimit < 1:
		return fmt.Errorf("%w: sizes, limits and timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}
