package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestRetry_SucceedsOnSecondAttempt(t *testing.T) {
	calls := 0
	var notified []int

	err := Retry(context.Background(), RetryPolicy{Attempts: 2, Delay: time.Millisecond}, func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("upstream reset")
		}
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		notified = append(notified, attempt)
		if delay != time.Millisecond {
			t.Fatalf("unexpected delay: %s", delay)
		}
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(notified) != 1 || notified[0] != 1 {
		t.Fatalf("unexpected notifications: %v", notified)
	}
}

func TestRetry_ReturnsLastErrorWhenExhausted(t *testing.T) {
	sentinel := errors.New("still broken")
	calls := 0

	err := Retry(context.Background(), RetryPolicy{Attempts: 2}, func(context.Context) error {
		calls++
		return sentinel
	}, nil)
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetry_SingleAttemptDoesNotWait(t *testing.T) {
	sentinel := errors.New("once")
	calls := 0

	start := time.Now()
	err := Retry(context.Background(), RetryPolicy{Attempts: 1, Delay: time.Hour}, func(context.Context) error {
		calls++
		return sentinel
	}, nil)
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("single attempt must not wait")
	}
}

func TestRetry_StopsWaitingWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Retry(ctx, RetryPolicy{Attempts: 3, Delay: time.Hour}, func(context.Context) error {
		calls++
		return errors.New("fail")
	}, func(int, error, time.Duration) {
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestRetryPolicyFromRetries(t *testing.T) {
	policy := RetryPolicyFromRetries(1, 5*time.Minute)
	if policy.Attempts != 2 || policy.Delay != 5*time.Minute {
		t.Fatalf("unexpected policy: %+v", policy)
	}

	policy = RetryPolicyFromRetries(-3, -time.Second)
	if policy.Attempts != 1 || policy.Delay != 0 {
		t.Fatalf("unexpected normalized policy: %+v", policy)
	}

	if got := DefaultRetryPolicy(); got.Attempts != 2 || got.Delay != 5*time.Minute {
		t.Fatalf("unexpected default policy: %+v", got)
	}
	if got := DefaultRetryPolicy().Retries(); got != 1 {
		t.Fatalf("expected 1 retry by default, got=%d", got)
	}
	if got := RetryPolicyFromRetries(3, time.Second).Retries(); got != 3 {
		t.Fatalf("expected retries to round-trip, got=%d", got)
	}
}

func TestRetry_LongPolicyIsNotCutByElapsedTime(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var delays []time.Duration
	err := Retry(ctx, RetryPolicy{Attempts: 4, Delay: 20 * time.Minute}, func(context.Context) error {
		return errors.New("down")
	}, func(_ int, _ error, delay time.Duration) {
		delays = append(delays, delay)
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(delays) != 1 || delays[0] != 20*time.Minute {
		t.Fatalf("a delay past the default elapsed budget must still be scheduled, got %v", delays)
	}
}

func TestRetry_KeepsLastErrorOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sentinel := errors.New("provider down")

	err := Retry(ctx, RetryPolicy{Attempts: 2, Delay: time.Hour}, func(context.Context) error {
		return sentinel
	}, func(int, error, time.Duration) {
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !strings.Contains(fmt.Sprintf("%+v", err), "provider down") {
		t.Fatalf("expected last attempt error in details, got %+v", err)
	}
}
