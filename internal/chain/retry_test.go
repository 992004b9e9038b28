package chain

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls mismatch: %d", calls)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := withRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls mismatch: %d", calls)
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, 5, time.Hour, func(context.Context) error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type revertError struct{}

func (revertError) Error() string  { return "execution reverted" }
func (revertError) ErrorCode() int { return revertErrorCode }

func TestWithRetrySkipsReverts(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return revertError{}
	})
	if err == nil {
		t.Fatalf("expected revert error")
	}
	if calls != 1 {
		t.Fatalf("revert should not be retried, calls: %d", calls)
	}
}
