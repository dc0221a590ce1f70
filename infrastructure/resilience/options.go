package resilience

import (
	"time"

	"github.com/globalapptesting/hrl-go/domain/event"
)

// Option configures the guarded store.
type Option func(*Config)

// WithMaxConcurrent sets the maximum concurrent store calls.
func WithMaxConcurrent(n int) Option {
	return func(c *Config) {
		c.MaxConcurrent = n
	}
}

// WithBreaker sets the failure threshold and open duration of the breaker.
func WithBreaker(threshold int, timeout time.Duration) Option {
	return func(c *Config) {
		c.BreakerThreshold = threshold
		c.BreakerTimeout = timeout
	}
}

// WithRetry sets the attempts and initial delay of retries.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Config) {
		c.RetryAttempts = attempts
		c.RetryDelay = delay
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// NewStoreWithOptions guards inner with the default configuration adjusted
// by opts.
func NewStoreWithOptions(inner event.Store, opts ...Option) *Store {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return NewStore(inner, config)
}
