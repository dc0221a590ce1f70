// Package resilience guards event stores with fortify patterns.
package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/globalapptesting/hrl-go/domain/event"
)

// Store wraps an event.Store with a bulkhead, a per-call timeout, a circuit
// breaker and retries. Subscribe is passed through unguarded.
type Store struct {
	inner    event.Store
	bulkhead bulkhead.Bulkhead[[]event.Event]
	breaker  circuitbreaker.CircuitBreaker[[]event.Event]
	retry    retry.Retry[[]event.Event]
	timeout  time.Duration
}

// Config configures the guarded store.
type Config struct {
	// MaxConcurrent limits concurrent store calls.
	MaxConcurrent int

	// BreakerThreshold is the number of consecutive failures before opening.
	BreakerThreshold int

	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration

	// RetryAttempts is the maximum number of attempts per call.
	RetryAttempts int

	// RetryDelay is the initial delay between attempts.
	RetryDelay time.Duration

	// RetryMultiplier is the exponential backoff multiplier.
	RetryMultiplier float64

	// Timeout bounds each call, retries included.
	Timeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:    10,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
		RetryAttempts:    3,
		RetryDelay:       50 * time.Millisecond,
		RetryMultiplier:  2.0,
		Timeout:          5 * time.Second,
	}
}

// NewStore guards inner.
func NewStore(inner event.Store, config Config) *Store {
	defaults := DefaultConfig()
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = defaults.MaxConcurrent
	}
	if config.BreakerThreshold <= 0 {
		config.BreakerThreshold = defaults.BreakerThreshold
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	threshold := uint32(config.BreakerThreshold) // #nosec G115 -- positive above

	return &Store{
		inner: inner,
		bulkhead: bulkhead.New[[]event.Event](bulkhead.Config{
			MaxConcurrent: config.MaxConcurrent,
		}),
		breaker: circuitbreaker.New[[]event.Event](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    config.BreakerTimeout,
			Timeout:     config.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		}),
		retry: retry.New[[]event.Event](retry.Config{
			MaxAttempts:        config.RetryAttempts,
			InitialDelay:       config.RetryDelay,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         config.RetryMultiplier,
			NonRetryableErrors: []error{context.Canceled, context.DeadlineExceeded},
		}),
		timeout: config.Timeout,
	}
}

// guard runs fn as bulkhead, timeout, breaker then retry.
func (s *Store) guard(ctx context.Context, fn func(context.Context) ([]event.Event, error)) ([]event.Event, error) {
	return s.bulkhead.Execute(ctx, func(ctx context.Context) ([]event.Event, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		return s.breaker.Execute(ctx, func(ctx context.Context) ([]event.Event, error) {
			return s.retry.Do(ctx, fn)
		})
	})
}

// Append implements event.Store.
func (s *Store) Append(ctx context.Context, events ...event.Event) error {
	_, err := s.guard(ctx, func(ctx context.Context) ([]event.Event, error) {
		return nil, s.inner.Append(ctx, events...)
	})
	return err
}

// LoadEvents implements event.Store.
func (s *Store) LoadEvents(ctx context.Context, episodeID string) ([]event.Event, error) {
	return s.guard(ctx, func(ctx context.Context) ([]event.Event, error) {
		return s.inner.LoadEvents(ctx, episodeID)
	})
}

// LoadEventsFrom implements event.Store.
func (s *Store) LoadEventsFrom(ctx context.Context, episodeID string, fromVersion uint64) ([]event.Event, error) {
	return s.guard(ctx, func(ctx context.Context) ([]event.Event, error) {
		return s.inner.LoadEventsFrom(ctx, episodeID, fromVersion)
	})
}

// Subscribe implements event.Store.
func (s *Store) Subscribe(ctx context.Context, episodeID string) (<-chan event.Event, error) {
	return s.inner.Subscribe(ctx, episodeID)
}

// BreakerState returns the state of the circuit breaker.
func (s *Store) BreakerState() circuitbreaker.State {
	return s.breaker.State()
}

// Close closes the wrapped store if it holds resources.
func (s *Store) Close() error {
	if c, ok := s.inner.(event.Closer); ok {
		return c.Close()
	}
	return nil
}

var (
	_ event.Store  = (*Store)(nil)
	_ event.Closer = (*Store)(nil)
)
