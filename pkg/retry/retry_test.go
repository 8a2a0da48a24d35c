package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
	calls := 0
	base := errors.New("always failing")
	err := Do(context.Background(), cfg, func() error {
		calls++
		return base
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !errors.Is(err, base) {
		t.Errorf("final error should wrap the last failure, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		return NonRetryable(errors.New("bad config"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-retryable error must stop after 1 call, got %d", calls)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, cfg, func() error {
		calls++
		return errors.New("failing")
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got: %v", err)
	}
}

func TestDo_InvalidConfig(t *testing.T) {
	if err := Do(context.Background(), Config{InitialDelay: -1}, func() error { return nil }); err == nil {
		t.Error("negative InitialDelay must be rejected")
	}
	bad := Config{InitialDelay: time.Second, MaxDelay: time.Millisecond}
	if err := Do(context.Background(), bad, func() error { return nil }); err == nil {
		t.Error("MaxDelay < InitialDelay must be rejected")
	}
}

func TestDoWithResult(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
	calls := 0
	got, err := DoWithResult(context.Background(), cfg, func() (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("not yet")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("DoWithResult() failed: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestIsNonRetryable(t *testing.T) {
	if IsNonRetryable(errors.New("plain")) {
		t.Error("plain errors are retryable")
	}
	if !IsNonRetryable(NonRetryable(errors.New("x"))) {
		t.Error("wrapped errors must report non-retryable")
	}
	if NonRetryable(nil) != nil {
		t.Error("NonRetryable(nil) must be nil")
	}
}

func TestPresetConfigs(t *testing.T) {
	q := Quick()
	if q.MaxAttempts != 10 || q.InitialDelay != 50*time.Millisecond {
		t.Errorf("unexpected Quick() config: %+v", q)
	}
	p := Persistent()
	if p.MaxAttempts != 30 || p.MaxDelay != 10*time.Second {
		t.Errorf("unexpected Persistent() config: %+v", p)
	}
}
