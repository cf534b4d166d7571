package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSequentialExecutor_SpacesRequests(t *testing.T) {
	executor := NewSequentialExecutor(20 * time.Millisecond)

	var starts []time.Time
	for i := 0; i < 3; i++ {
		err := executor.Execute(context.Background(), func() error {
			starts = append(starts, time.Now())
			return nil
		})
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
	}

	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < 15*time.Millisecond {
			t.Errorf("Expected requests spaced by the interval, gap %d was %v", i, gap)
		}
	}
}

func TestSequentialExecutor_NoOverlap(t *testing.T) {
	executor := NewSequentialExecutor(0)

	var mu sync.Mutex
	running, maxRunning := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = executor.Execute(context.Background(), func() error {
				mu.Lock()
				running++
				if running > maxRunning {
					maxRunning = running
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if maxRunning != 1 {
		t.Errorf("Expected sequential execution, saw %d concurrent calls", maxRunning)
	}
}

func TestSequentialExecutor_ContextCanceledWhileWaiting(t *testing.T) {
	executor := NewSequentialExecutor(time.Hour)
	if err := executor.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("First execute failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	called := false
	err := executor.Execute(ctx, func() error {
		called = true
		return nil
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if called {
		t.Error("Expected fn not to run after cancellation")
	}
}
