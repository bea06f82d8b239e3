package retry

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), 3, Linear(time.Millisecond), Always, func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), 3, Linear(time.Millisecond), Always, func() (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want %q", got, "ok")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), 3, Linear(time.Millisecond), Always, func() (int, error) {
		calls++
		return 0, fmt.Errorf("always fails")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	permanent := fmt.Errorf("permanent")
	calls := 0
	_, err := Do(context.Background(), 5, Linear(time.Millisecond), func(err error) bool {
		return err != permanent
	}, func() (int, error) {
		calls++
		return 0, permanent
	})
	if err != permanent {
		t.Errorf("err = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, err := Do(ctx, 3, Linear(time.Hour), Always, func() (int, error) {
			calls++
			return 0, fmt.Errorf("transient")
		})
		if err != context.Canceled {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSchedules(t *testing.T) {
	lin := Linear(time.Second)
	for attempt, want := range map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 3 * time.Second} {
		if got := lin(attempt); got != want {
			t.Errorf("Linear(1s)(%d) = %v, want %v", attempt, got, want)
		}
	}

	exp := Exponential(time.Second)
	for attempt, want := range map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second} {
		if got := exp(attempt); got != want {
			t.Errorf("Exponential(1s)(%d) = %v, want %v", attempt, got, want)
		}
	}
}
