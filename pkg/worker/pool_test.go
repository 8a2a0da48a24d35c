package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// Test data structure for worker pool tests
type testWork struct {
	id   int
	fail bool
}

func TestNewPool(t *testing.T) {
	processor := func(ctx context.Context, _ testWork) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	pool := NewPool(5, 100, processor)
	if pool.workers != 5 {
		t.Errorf("Expected 5 workers, got %d", pool.workers)
	}
	if pool.queueSize != 100 {
		t.Errorf("Expected queue size 100, got %d", pool.queueSize)
	}

	// Zero values fall back to defaults
	pool = NewPool(0, 0, processor)
	if pool.workers != 1 {
		t.Errorf("Expected default 1 worker, got %d", pool.workers)
	}
	if pool.queueSize != 1000 {
		t.Errorf("Expected default queue size 1000, got %d", pool.queueSize)
	}
}

func TestNewPool_NilProcessor(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for nil processor")
		}
	}()
	NewPool[testWork](5, 100, nil)
}

func TestPool_StartStop(t *testing.T) {
	var processedCount int64
	processor := func(_ context.Context, _ testWork) error {
		atomic.AddInt64(&processedCount, 1)
		return nil
	}

	pool := NewPool(2, 10, processor)

	ctx := context.Background()
	if err := pool.Start(ctx); err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	if err := pool.Start(ctx); err == nil {
		t.Error("Expected error when starting pool twice")
	}

	for i := 0; i < 5; i++ {
		if err := pool.Submit(testWork{id: i}); err != nil {
			t.Errorf("Failed to submit work %d: %v", i, err)
		}
	}

	if err := pool.Stop(5 * time.Second); err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	if processed := atomic.LoadInt64(&processedCount); processed != 5 {
		t.Errorf("Expected 5 processed items, got %d", processed)
	}

	if err := pool.Submit(testWork{id: 999}); err == nil {
		t.Error("Expected error when submitting to stopped pool")
	}
}

func TestPool_SubmitBeforeStart(t *testing.T) {
	pool := NewPool(1, 1, func(context.Context, testWork) error { return nil })
	if err := pool.Submit(testWork{}); !errors.Is(err, ErrPoolNotStarted) {
		t.Errorf("Expected ErrPoolNotStarted, got %v", err)
	}
}

func TestPool_QueueFull(t *testing.T) {
	block := make(chan struct{})
	pool := NewPool(1, 1, func(_ context.Context, _ testWork) error {
		<-block
		return nil
	})

	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}
	defer func() {
		close(block)
		_ = pool.Stop(time.Second)
	}()

	// First item occupies the worker, second fills the queue; one of the
	// following submits must hit the full queue.
	sawFull := false
	for i := 0; i < 4; i++ {
		if err := pool.Submit(testWork{id: i}); errors.Is(err, ErrQueueFull) {
			sawFull = true
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !sawFull {
		t.Error("Expected ErrQueueFull when submitting past capacity")
	}

	if dropped := pool.Stats().Dropped; dropped == 0 {
		t.Error("Dropped counter should reflect refused work")
	}
}

func TestPool_FailedWorkCounted(t *testing.T) {
	pool := NewPool(1, 10, func(_ context.Context, w testWork) error {
		if w.fail {
			return errors.New("processing failed")
		}
		return nil
	})

	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	_ = pool.Submit(testWork{id: 1, fail: true})
	_ = pool.Submit(testWork{id: 2})

	if err := pool.Stop(time.Second); err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	stats := pool.Stats()
	if stats.Processed != 2 {
		t.Errorf("Expected 2 processed, got %d", stats.Processed)
	}
	if stats.Failed != 1 {
		t.Errorf("Expected 1 failed, got %d", stats.Failed)
	}
}

func TestPool_StopIdempotent(t *testing.T) {
	pool := NewPool(1, 1, func(context.Context, testWork) error { return nil })
	if err := pool.Stop(time.Second); err != nil {
		t.Errorf("Stop before start should be a no-op, got %v", err)
	}

	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}
	if err := pool.Stop(time.Second); err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}
	if err := pool.Stop(time.Second); err != nil {
		t.Errorf("Second stop should be a no-op, got %v", err)
	}
}
