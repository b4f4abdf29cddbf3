package services

import (
	"context"
	"time"
)

// RetryConfig bounds internal retries of operations that must eventually
// succeed but may hit transient storage failures.
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Backoff:     50 * time.Millisecond,
	}
}

// withRetry runs fn up to MaxAttempts times with linearly increasing backoff
// between attempts. The context guards only the waits: a started attempt
// always runs to completion. Returns the last error if all attempts fail.
func withRetry(ctx context.Context, cfg RetryConfig, onRetry func(), fn func() error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		if onRetry != nil {
			onRetry()
		}

		select {
		case <-time.After(cfg.Backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return err
		}
	}

	return err
}
