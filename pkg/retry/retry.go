package retry

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"daycaresync/pkg/errors"
	"daycaresync/pkg/logger"
)

// Operation is a function that may need retrying
type Operation func() error

// Config holds retry configuration
type Config struct {
	// MaxAttempts caps the number of attempts (0 means a single attempt)
	MaxAttempts int
	// Backoff computes the delay before each retry
	Backoff BackoffStrategy
	// RetryIf decides whether an error is worth another attempt
	RetryIf func(error) bool
	// Context aborts the wait between attempts
	Context context.Context
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf retries transient typed errors and gives up on everything
// that will fail the same way again (auth, parsing, not found).
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	var typed *errors.Error
	if stderrors.As(err, &typed) {
		return errors.IsRetryable(typed.Type)
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return true
}

// Do executes an operation with retry and backoff
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := cfg.Context.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		delay := cfg.Backoff.NextDelay(attempt)
		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying after failure", map[string]interface{}{
				"attempt": attempt,
				"delay":   delay,
				"error":   err.Error(),
			})
		}

		select {
		case <-cfg.Context.Done():
			return cfg.Context.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", maxAttempts, lastErr)
}
