package terraform

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestIsLockError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{
			name: "acquire message",
			err:  errors.New("Error: Error acquiring the state lock"),
			want: true,
		},
		{
			name: "lock info block",
			err:  errors.New("state lock could not be acquired\nLock Info:\n  ID: abc"),
			want: true,
		},
		{name: "other failure", err: errors.New("invalid provider configuration"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLockError(tt.err); got != tt.want {
				t.Errorf("IsLockError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestRetryOnLockSucceedsAfterContention(t *testing.T) {
	lockErr := errors.New("Error acquiring the state lock")
	calls := 0

	err := retryOnLock(context.Background(), fastRetry(), zap.NewNop(), func() error {
		calls++
		if calls < 3 {
			return lockErr
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retryOnLock() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryOnLockGivesUp(t *testing.T) {
	lockErr := errors.New("Error acquiring the state lock")
	calls := 0

	err := retryOnLock(context.Background(), fastRetry(), zap.NewNop(), func() error {
		calls++
		return lockErr
	})
	if !errors.Is(err, ErrStateLockContended) {
		t.Fatalf("retryOnLock() error = %v, want ErrStateLockContended", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryOnLockDoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("invalid provider configuration")
	calls := 0

	err := retryOnLock(context.Background(), fastRetry(), zap.NewNop(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("retryOnLock() error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryOnLockHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lockErr := errors.New("Error acquiring the state lock")

	err := retryOnLock(ctx, fastRetry(), zap.NewNop(), func() error {
		cancel()
		return lockErr
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("retryOnLock() error = %v, want context.Canceled", err)
	}
}
