// Package queue holds run triggers waiting for the run worker.
//
// The queue is bounded and never blocks producers: a trigger that does not
// fit is refused, which is how overlapping runs are rejected.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/pkg/metrics"
)

const defaultCapacity = 1

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request, or returns ErrFull or ErrClosed.
	Enqueue(ctx context.Context, r model.RunRequest) error

	// Dequeue returns a channel that will receive requests as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan model.RunRequest

	// Len returns the current number of queued requests.
	Len(ctx context.Context) int

	// Close stops accepting requests and closes the dequeue channel.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan model.RunRequest
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan model.RunRequest, q.capacity)
	metrics.UpdateRunQueueDepth(0)
	return q
}

// Enqueue adds r without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r model.RunRequest) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", r.ID, err)
	}

	select {
	case q.requests <- r:
		metrics.UpdateRunQueueDepth(len(q.requests))
		return nil
	default:
		return fmt.Errorf("%w: capacity %d", ErrFull, q.capacity)
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan model.RunRequest {
	return q.requests
}

// Len returns the number of waiting requests.
func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.requests)
	metrics.UpdateRunQueueDepth(n)
	return n
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
