package client

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/contentsearch/pkg/types"
)

// Retry defaults
const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 200 * time.Millisecond
	DefaultMaxBackoff     = 2 * time.Second
	DefaultBackoffFactor  = 2.0
)

// RetryConfig configures exponential backoff retry behavior
type RetryConfig struct {
	MaxAttempts int           // Total attempts including the first
	BaseDelay   time.Duration // Initial delay between attempts
	MaxDelay    time.Duration // Cap on the delay
	Multiplier  float64       // Exponential backoff multiplier
}

// DefaultRetryConfig returns the defaults used by HTTPTransport
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultInitialBackoff,
		MaxDelay:    DefaultMaxBackoff,
		Multiplier:  DefaultBackoffFactor,
	}
}

// isRetryable reports whether err is worth another attempt: network
// failures, 429 and 5xx are; everything else is final
func isRetryable(err error) bool {
	var te *types.TransportError
	return errors.As(err, &te) && te.Retryable()
}

// retryWithBackoff calls fn until it succeeds, returns a non-retryable
// error, runs out of attempts or ctx is done
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := config.BaseDelay

	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !isRetryable(err) {
			return zero, err
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if config.MaxDelay > 0 && backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}
