// Package timeouts holds the deadlines used for database work in handlers,
// stores and background jobs.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
)

var (
	mu     sync.RWMutex
	values = Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
)

// Config holds timeout configuration values.
type Config struct {
	Ping   time.Duration // health checks
	Short  time.Duration // single-document reads and writes
	Medium time.Duration // list queries, small transactions
	Long   time.Duration // cascades, aggregations
	Batch  time.Duration // background jobs
}

// Ping returns the timeout for health checks.
func Ping() time.Duration { return Current().Ping }

// Short returns the timeout for simple operations.
func Short() time.Duration { return Current().Short }

// Medium returns the timeout for moderate operations.
func Medium() time.Duration { return Current().Medium }

// Long returns the timeout for complex operations.
func Long() time.Duration { return Current().Long }

// Batch returns the timeout for bulk operations.
func Batch() time.Duration { return Current().Batch }

// Configure overrides the non-zero fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		values.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		values.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		values.Medium = cfg.Medium
	}
	if cfg.Long > 0 {
		values.Long = cfg.Long
	}
	if cfg.Batch > 0 {
		values.Batch = cfg.Batch
	}
}

// Reset restores all timeouts to defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	values = Config{DefaultPing, DefaultShort, DefaultMedium, DefaultLong, DefaultBatch}
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return values
}

// WithTimeout derives a context with the given timeout. The returned cancel
// logs a warning if the deadline was hit.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
