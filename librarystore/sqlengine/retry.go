package sqlengine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/AntonStoeckl/librarydesk/librarystore"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine/internal/adapters"
)

const (
	defaultMaxAttempts    = 3
	defaultBaseDelay      = time.Second
	defaultJitterFactor   = 0.0
	defaultAcquireTimeout = 5 * time.Second
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// retryConfig holds configuration for the exponential backoff of connection acquisition.
type retryConfig struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}
}

// RetryOption configures retry behavior using the functional options pattern.
type RetryOption func(*retryConfig) error

// WithMaxAttempts sets the maximum number of acquisition attempts.
func WithMaxAttempts(attempts int) RetryOption {
	return func(config *retryConfig) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		config.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
// Actual delays: baseDelay, baseDelay*2, baseDelay*4, etc.
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(config *retryConfig) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		config.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the jitter added as a fraction of each backoff delay.
// Valid range: 0.0 (no jitter) to 1.0 (100% jitter).
func WithJitterFactor(factor float64) RetryOption {
	return func(config *retryConfig) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		config.jitterFactor = factor

		return nil
	}
}

// backoffDelay returns the pause before the given attempt (attempt 0 never waits).
func (c retryConfig) backoffDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := c.baseDelay * time.Duration(1<<(attempt-1))
	jitter := rand.Float64() * float64(delay) * c.jitterFactor //nolint:gosec //math/rand is sufficient for jitter

	return delay + time.Duration(jitter)
}

// acquireWithRetry hands out a connection, retrying failed attempts with exponential backoff.
// Each attempt is bounded by the acquire timeout. A done parent context ends the loop at once.
func (e *Engine) acquireWithRetry(ctx context.Context, readOnly bool) (adapters.DBConn, error) {
	var lastErr error

	for attempt := 0; attempt < e.retry.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := e.retry.backoffDelay(attempt)
			e.recordRetryMetrics(ctx, attempt, delay)
			e.logWarnContext(ctx, logMsgAcquireRetry,
				logAttrAttempt, attempt+1,
				logAttrDelayMS, toMilliseconds(delay),
				logAttrError, lastErr.Error(),
			)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, errors.Join(librarystore.ErrConnectionFailure, ctx.Err())
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.acquireTimeout)
		conn, err := e.db.Acquire(attemptCtx, readOnly)
		cancel()

		if err == nil {
			return conn, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return nil, errors.Join(librarystore.ErrConnectionFailure, ctx.Err())
		}
	}

	e.recordConnectionFailureMetrics(ctx, e.retry.maxAttempts)
	e.logErrorContext(ctx, logMsgAcquireFailed, lastErr, logAttrAttempts, e.retry.maxAttempts)

	return nil, errors.Join(librarystore.ErrConnectionFailure, lastErr)
}
