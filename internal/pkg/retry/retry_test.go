package retry

import (
	"context"
	"errors"
	"testing"
)

var errFlaky = errors.New("flaky")

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), Config{MaxRetries: 2}, nil, nil, func(attempt int) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("expected single successful call, got result=%q calls=%d", result, calls)
	}
}

func TestDoPassesAttemptIndex(t *testing.T) {
	var attempts []int
	_, err := Do(context.Background(), Config{MaxRetries: 2}, nil, nil, func(attempt int) (int, error) {
		attempts = append(attempts, attempt)
		if attempt < 2 {
			return 0, errFlaky
		}
		return attempt, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) != 3 || attempts[0] != 0 || attempts[2] != 2 {
		t.Errorf("expected 0-indexed attempts [0 1 2], got %v", attempts)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Config{MaxRetries: 1}, nil, nil, func(attempt int) (int, error) {
		calls++
		return 0, errFlaky
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !errors.Is(err, errFlaky) {
		t.Errorf("expected wrapped last error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestDoNonRetryableStopsEarly(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	_, err := Do(context.Background(), Config{MaxRetries: 5}, func(err error) bool {
		return !errors.Is(err, fatal)
	}, nil, func(attempt int) (int, error) {
		calls++
		return 0, fatal
	})
	if !errors.Is(err, fatal) {
		t.Errorf("expected fatal error surfaced, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected retries skipped for non-retryable error, got %d calls", calls)
	}
}

func TestDoOnRetryCallback(t *testing.T) {
	var notified []int
	_, _ = Do(context.Background(), Config{MaxRetries: 2}, nil, func(attempt int, err error) {
		if !errors.Is(err, errFlaky) {
			t.Errorf("expected last error in callback, got %v", err)
		}
		notified = append(notified, attempt)
	}, func(attempt int) (int, error) {
		return 0, errFlaky
	})
	if len(notified) != 2 || notified[0] != 1 || notified[1] != 2 {
		t.Errorf("expected 1-indexed retry notifications [1 2], got %v", notified)
	}
}
