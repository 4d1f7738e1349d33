package config

import (
	"time"

	"github.com/ajitpratap0/memstore/pkg/compression"
	"github.com/ajitpratap0/memstore/pkg/errors"
)

// StoreConfig is the configuration of one store process.
type StoreConfig struct {
	// Name identifies the store instance in logs and metrics
	Name string `yaml:"name" json:"name"`

	// Pool settings bound concurrent access
	Pool PoolConfig `yaml:"pool" json:"pool"`

	// Retention controls tombstone purging
	Retention RetentionConfig `yaml:"retention" json:"retention"`

	// Maintenance configures periodic reaper sweeps
	Maintenance MaintenanceConfig `yaml:"maintenance" json:"maintenance"`

	// Retry is applied around pool acquisition only
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Observability settings for monitoring and debugging
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`

	// Snapshot settings for exports
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`
}

// PoolConfig contains connection pool settings.
type PoolConfig struct {
	// MaxConnections is the number of slots, fixed for the pool's lifetime
	MaxConnections int `yaml:"max_connections" json:"max_connections"`
	// AcquireTimeout bounds how long a caller waits for a slot
	AcquireTimeout time.Duration `yaml:"acquire_timeout" json:"acquire_timeout"`
}

// RetentionConfig contains tombstone retention settings.
type RetentionConfig struct {
	// HorizonDays is how long a soft-deleted record is kept before purge
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`
}

// Horizon returns the retention horizon as a duration.
func (r RetentionConfig) Horizon() time.Duration {
	return time.Duration(r.HorizonDays) * 24 * time.Hour
}

// MaintenanceConfig contains reaper scheduling settings.
type MaintenanceConfig struct {
	// Interval between sweeps when running as a daemon
	Interval time.Duration `yaml:"interval" json:"interval"`
	// Collections swept on each run
	Collections []string `yaml:"collections" json:"collections"`
}

// RetryConfig contains backoff settings.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogEncoding is json or console
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
	// EnableMetrics serves Prometheus metrics on MetricsAddr
	EnableMetrics bool   `yaml:"enable_metrics" json:"enable_metrics"`
	MetricsAddr   string `yaml:"metrics_addr" json:"metrics_addr"`
	// EnableTracing exports spans to stderr
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
}

// SnapshotConfig contains export settings.
type SnapshotConfig struct {
	// Compression is one of none, gzip, deflate, snappy, s2, zstd, lz4
	Compression string `yaml:"compression" json:"compression"`
}

// DefaultStoreConfig returns the configuration used when nothing is set.
func DefaultStoreConfig() *StoreConfig {
	return &StoreConfig{
		Name: "memstore",
		Pool: PoolConfig{
			MaxConnections: 20,
			AcquireTimeout: 5 * time.Second,
		},
		Retention: RetentionConfig{
			HorizonDays: 90,
		},
		Maintenance: MaintenanceConfig{
			Interval:    time.Hour,
			Collections: []string{"products", "customers", "orders", "reviews"},
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2.0,
		},
		Observability: ObservabilityConfig{
			LogLevel:      "info",
			LogEncoding:   "json",
			EnableMetrics: false,
			MetricsAddr:   ":9090",
			EnableTracing: false,
		},
		Snapshot: SnapshotConfig{
			Compression: string(compression.Zstd),
		},
	}
}

// Validate validates the configuration for correctness.
// It checks that values are within acceptable ranges and returns a config
// error naming the first offending field.
func (c *StoreConfig) Validate() error {
	switch {
	case c.Name == "":
		return invalid("name", "name is required")
	case c.Pool.MaxConnections <= 0:
		return invalid("pool.max_connections", "max_connections must be positive")
	case c.Pool.AcquireTimeout < 0:
		return invalid("pool.acquire_timeout", "acquire_timeout cannot be negative")
	case c.Retention.HorizonDays < 0:
		return invalid("retention.horizon_days", "horizon_days cannot be negative")
	case c.Maintenance.Interval <= 0:
		return invalid("maintenance.interval", "interval must be positive")
	case c.Retry.MaxAttempts < 1:
		return invalid("retry.max_attempts", "max_attempts must be at least 1")
	case c.Retry.InitialDelay < 0 || c.Retry.MaxDelay < 0:
		return invalid("retry.initial_delay", "retry delays cannot be negative")
	}

	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return invalid("observability.log_level", "unknown log level "+c.Observability.LogLevel)
	}
	switch c.Observability.LogEncoding {
	case "json", "console":
	default:
		return invalid("observability.log_encoding", "unknown log encoding "+c.Observability.LogEncoding)
	}
	if _, err := compression.ParseAlgorithm(c.Snapshot.Compression); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid snapshot.compression").
			WithDetail("field", "snapshot.compression")
	}
	return nil
}

func invalid(field, message string) error {
	return errors.New(errors.ErrorTypeConfig, message).WithDetail("field", field)
}
