package api

import (
	"context"
	"sync"
	"time"
)

// SequentialExecutor serializes provider requests and keeps a minimum
// interval between the start of consecutive requests
type SequentialExecutor struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

// NewSequentialExecutor creates a new sequential executor
func NewSequentialExecutor(minInterval time.Duration) *SequentialExecutor {
	return &SequentialExecutor{minInterval: minInterval}
}

// Execute waits for the previous request and the interval, then runs fn
func (se *SequentialExecutor) Execute(ctx context.Context, fn func() error) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if !se.lastRequest.IsZero() && se.minInterval > 0 {
		if wait := se.minInterval - time.Since(se.lastRequest); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	se.lastRequest = time.Now()
	return fn()
}
