package sqlengine

import (
	"errors"
	"time"

	"github.com/AntonStoeckl/librarydesk/librarystore"
)

var (
	// ErrInvalidAcquireTimeout is returned when the acquire timeout is not positive.
	ErrInvalidAcquireTimeout = errors.New("acquire timeout must be positive")

	// ErrNilClock is returned when WithClock receives nil.
	ErrNilClock = errors.New("clock must not be nil")
)

// Option defines a functional option for configuring an Engine.
type Option func(*Engine) error

// WithLogger sets the logger for the Engine.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Transactions, migrations and acquisition retries (production-safe)
// Warn level: Non-critical issues like failed rows cleanup
// Error level: Critical failures that cause operation failures.
func WithLogger(logger librarystore.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Engine.
// It receives the same messages as the plain logger, plus the context for trace correlation.
func WithContextualLogger(logger librarystore.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Engine.
func WithMetrics(collector librarystore.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Engine.
func WithTracing(collector librarystore.TracingCollector) Option {
	return func(e *Engine) error {
		e.tracingCollector = collector
		return nil
	}
}

// WithRetryOptions configures how connection acquisition is retried.
func WithRetryOptions(options ...RetryOption) Option {
	return func(e *Engine) error {
		for _, option := range options {
			if err := option(&e.retry); err != nil {
				return err
			}
		}

		return nil
	}
}

// WithAcquireTimeout bounds every single acquisition attempt.
func WithAcquireTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout <= 0 {
			return ErrInvalidAcquireTimeout
		}

		e.acquireTimeout = timeout

		return nil
	}
}

// WithClock replaces time.Now. The clock location decides which calendar day is today.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) error {
		if clock == nil {
			return ErrNilClock
		}

		e.clock = clock

		return nil
	}
}
