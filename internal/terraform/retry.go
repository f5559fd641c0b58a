package terraform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RetryConfig configures exponential backoff for state-lock contention.
type RetryConfig struct {
	MaxAttempts int           // Total attempts, including the first
	BaseDelay   time.Duration // Initial delay between attempts
	MaxDelay    time.Duration // Delay ceiling
	Multiplier  float64       // Exponential backoff multiplier
}

// DefaultRetryConfig returns the defaults used by Runner.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// IsLockError reports whether err looks like terraform state-lock
// contention. Terraform has no structured error for this, so the check
// is textual.
func IsLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Error acquiring the state lock") ||
		strings.Contains(msg, "state lock") && strings.Contains(msg, "Lock Info")
}

// retryOnLock runs fn, retrying with exponential backoff only when the
// failure is state-lock contention. Any other error, and context
// cancellation, stop immediately.
func retryOnLock(ctx context.Context, config RetryConfig, log *zap.Logger, fn func() error) error {
	var lastErr error
	backoff := config.BaseDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsLockError(err) {
			return err
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt < config.MaxAttempts-1 {
			log.Warn("state lock contended, retrying",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrStateLockContended, config.MaxAttempts, lastErr)
}
