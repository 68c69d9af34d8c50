package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"opsdash/pkg/models"
)

// MemoryQueue is an in-process job queue for single-binary deployments.
type MemoryQueue struct {
	ch           chan []byte
	blockTimeout time.Duration
}

// NewMemoryQueue creates a queue holding up to capacity jobs.
func NewMemoryQueue(capacity int, blockTimeout time.Duration) *MemoryQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	if blockTimeout <= 0 {
		blockTimeout = time.Second
	}
	return &MemoryQueue{ch: make(chan []byte, capacity), blockTimeout: blockTimeout}
}

// Enqueue adds a job, waiting for room until ctx is done.
func (q *MemoryQueue) Enqueue(ctx context.Context, job models.RefreshJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal refresh job: %w", err)
	}
	select {
	case q.ch <- payload:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("refresh queue full: %w", ctx.Err())
	}
}

// Pop waits up to the block timeout for a job.
func (q *MemoryQueue) Pop(ctx context.Context) ([]byte, error) {
	timer := time.NewTimer(q.blockTimeout)
	defer timer.Stop()
	select {
	case payload := <-q.ch:
		return payload, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports queued jobs.
func (q *MemoryQueue) Len(context.Context) (int64, error) {
	return int64(len(q.ch)), nil
}

// Close is a no-op; queued jobs are dropped with the process.
func (q *MemoryQueue) Close() error {
	return nil
}
