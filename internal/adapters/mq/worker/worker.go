// Package worker runs queued pipeline triggers one at a time.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/pkg/logger"
	"github.com/okian/gigradar/pkg/metrics"
)

// Queue defines how the runner receives requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.RunRequest
}

// Handler executes one run.
type Handler interface {
	HandleRun(ctx context.Context, r model.RunRequest) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, r model.RunRequest) error

// HandleRun calls f.
func (f HandlerFunc) HandleRun(ctx context.Context, r model.RunRequest) error { return f(ctx, r) }

// Runner consumes a queue sequentially, so at most one run executes at a time.
type Runner struct {
	queue   Queue
	handler Handler
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewRunner creates a runner with configuration options.
func NewRunner(queue Queue, handler Handler, opts ...Option) *Runner {
	w := &Runner{
		queue:    queue,
		handler:  handler,
		name:     "runner",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.GetOrNop().Named("runner"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "runner" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the runner loop until ctx is canceled, Shutdown is called, or
// the queue is closed.
func (w *Runner) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "run failed",
					logger.String("run_id", r.ID), logger.String("kind", string(r.Kind)), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the runner after the current run finishes.
func (w *Runner) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one request, converting a panic into an error.
func (w *Runner) process(ctx context.Context, r model.RunRequest) (err error) {
	start := time.Now()
	metrics.SetRunActive(true)
	defer func() {
		metrics.SetRunActive(false)
		if p := recover(); p != nil {
			err = fmt.Errorf("run %s panicked: %v", r.ID, p)
		}
		w.logger.Debug(ctx, "run finished",
			logger.String("run_id", r.ID), logger.Duration("elapsed", time.Since(start)))
	}()
	return w.handler.HandleRun(ctx, r)
}
