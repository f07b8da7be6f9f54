// Package service runs recommend and cleanup passes for the CLI and the
// HTTP API. Runs are serialized: triggers wait in a bounded queue consumed
// by a single runner.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/gigradar/internal/adapters/mq/queue"
	"github.com/okian/gigradar/internal/adapters/mq/worker"
	"github.com/okian/gigradar/internal/adapters/notify"
	"github.com/okian/gigradar/internal/domain/dedupe"
	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/pkg/logger"
	"github.com/okian/gigradar/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// RunReport summarizes one run.
type RunReport struct {
	ID         string         `json:"id"`
	Kind       model.RunKind  `json:"kind"`
	State      State          `json:"state"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	Artists    int            `json:"artists,omitempty"`
	Events     int            `json:"events,omitempty"`
	Matches    int            `json:"matches,omitempty"`
	Outcomes   map[string]int `json:"outcomes,omitempty"`
	Deleted    int            `json:"deleted,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Status is a point-in-time view of the service.
type Status struct {
	Started bool       `json:"started"`
	Active  bool       `json:"active"`
	Stage   State      `json:"stage"`
	Queued  int        `json:"queued"`
	Runs    int        `json:"runs"`
	Current *RunReport `json:"current,omitempty"`
	Last    *RunReport `json:"last,omitempty"`
}

// Service owns the run queue, the runner and the collaborators of a run.
type Service struct {
	mu    sync.RWMutex
	runMu sync.Mutex

	// Core components
	orchestrator *Orchestrator
	store        dedupe.Store
	resolver     *dedupe.Resolver
	sink         notify.Sink
	queue        *eventqueue.InMemoryQueue
	runner       *worker.Runner

	// Configuration
	queueSize int

	// State
	started bool
	cancel  context.CancelFunc
	current *RunReport
	last    *RunReport
	runs    int

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets how many triggers may wait behind the active run.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSink sets where batch progress and matches are reported.
func WithSink(sink notify.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithResolver replaces the default resolver over the store.
func WithResolver(r *dedupe.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// New constructs a Service around an orchestrator and a calendar store.
func New(orchestrator *Orchestrator, store dedupe.Store, opts ...Option) *Service {
	s := &Service{
		orchestrator: orchestrator,
		store:        store,
		queueSize:    1,
		logger:       logger.GetOrNop().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = dedupe.NewResolver(store, dedupe.WithLogger(s.logger.Named("resolver")))
	}
	if s.sink == nil {
		s.sink = notify.NewLog(s.logger.Named("notify"))
	}
	return s
}

// Start creates the trigger queue and starts the runner.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting run service...")

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.runner = worker.NewRunner(s.queue, worker.HandlerFunc(s.handle),
		worker.WithName("run-worker"),
		worker.WithLogger(s.logger),
	)
	go s.runner.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "run service started", logger.Int("queueSize", s.queueSize))
	return nil
}

// Stop cancels the active run and waits for the runner to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	q, runner, cancel := s.queue, s.runner, s.cancel
	s.mu.Unlock()

	ctx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()

	s.logger.Info(ctx, "stopping run service...")
	_ = q.Close()
	cancel()
	if err := runner.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "runner did not stop in time", logger.Error(err))
	}
	s.logger.Info(ctx, "run service stopped")
}

// Trigger queues a run. It returns ErrRunInProgress when the queue is full.
func (s *Service) Trigger(ctx context.Context, kind model.RunKind) (model.RunRequest, error) {
	if !kind.Valid() {
		return model.RunRequest{}, fmt.Errorf("%w: %q", ErrUnknownRunKind, kind)
	}

	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return model.RunRequest{}, ErrNotStarted
	}

	req := model.RunRequest{ID: uuid.NewString(), Kind: kind, RequestedAt: time.Now()}
	if err := q.Enqueue(ctx, req); err != nil {
		switch {
		case errors.Is(err, eventqueue.ErrFull):
			return model.RunRequest{}, ErrRunInProgress
		case errors.Is(err, eventqueue.ErrClosed):
			return model.RunRequest{}, ErrNotStarted
		default:
			return model.RunRequest{}, err
		}
	}
	s.logger.Info(ctx, "run queued", logger.String("run_id", req.ID), logger.String("kind", string(kind)))
	return req, nil
}

// RunOnce executes a run synchronously. It returns ErrRunInProgress if
// another run is executing.
func (s *Service) RunOnce(ctx context.Context, kind model.RunKind) (RunReport, error) {
	if !kind.Valid() {
		return RunReport{}, fmt.Errorf("%w: %q", ErrUnknownRunKind, kind)
	}
	if !s.runMu.TryLock() {
		return RunReport{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()
	return s.execute(ctx, model.RunRequest{ID: uuid.NewString(), Kind: kind, RequestedAt: time.Now()})
}

// Status reports the active run, the last finished run and the queue depth.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Started: s.started,
		Active:  s.current != nil,
		Stage:   s.orchestrator.State(),
		Runs:    s.runs,
	}
	if s.queue != nil {
		st.Queued = s.queue.Len(context.Background())
	}
	if s.current != nil {
		c := *s.current
		st.Current = &c
	}
	if s.last != nil {
		l := *s.last
		st.Last = &l
	}
	return st
}

// handle is the runner callback.
func (s *Service) handle(ctx context.Context, req model.RunRequest) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	_, err := s.execute(ctx, req)
	return err
}

// execute runs one request. The report is finished even when the run panics,
// so Status never keeps a stale current run.
func (s *Service) execute(ctx context.Context, req model.RunRequest) (rep RunReport, err error) {
	rep = RunReport{ID: req.ID, Kind: req.Kind, StartedAt: time.Now()}
	s.begin(rep)

	log := s.logger.With(logger.String("run_id", req.ID), logger.String("kind", string(req.Kind)))
	log.Info(ctx, "run started")

	defer func() {
		if p := recover(); p != nil {
			log.Error(ctx, "run panicked", logger.Any("panic", p))
			err = fmt.Errorf("%w: %v", ErrRunPanicked, p)
		}
		rep.FinishedAt = time.Now()
		if err != nil {
			rep.State = StateFailed
			rep.Error = err.Error()
		}
		metrics.RecordRun(string(rep.Kind), string(rep.State), rep.FinishedAt.Sub(rep.StartedAt))
		s.finish(rep)

		log.Info(ctx, "run finished",
			logger.String("state", string(rep.State)),
			logger.Int("matches", rep.Matches),
			logger.Int("deleted", rep.Deleted),
			logger.Duration("elapsed", rep.FinishedAt.Sub(rep.StartedAt)))
	}()

	switch req.Kind {
	case model.RunRecommend:
		err = s.recommend(ctx, log, &rep)
	case model.RunCleanup:
		err = s.cleanup(ctx, log, &rep)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownRunKind, req.Kind)
	}
	return rep, err
}

// recommend seeds run state from the calendar, runs the orchestrator and
// schedules matches as they appear: title matches after every batch, then
// performer matches once all sources are done.
func (s *Service) recommend(ctx context.Context, log logger.Logger, rep *RunReport) error {
	state := dedupe.NewRunState()
	existing, err := s.store.ListScheduled(ctx)
	if err != nil {
		log.Warn(ctx, "could not read scheduled entries, continuing unseeded", logger.Error(err))
	} else {
		state.Seed(existing)
	}
	log.Debug(ctx, "run state seeded",
		logger.String("state_id", state.ID()),
		logger.Any("seen", state.SeenCount()),
		logger.Int("excluded", len(state.ExcludedArtists())))

	rep.Outcomes = make(map[string]int)
	schedule := func(ctx context.Context, matches map[string][]model.MatchResult) {
		for _, listener := range listeners(matches) {
			for _, m := range matches[listener] {
				outcome, _, err := s.resolver.Create(ctx, state, m.Event, m.Artist)
				rep.Outcomes[outcome.String()]++
				metrics.RecordEntry(outcome.String())
				if err != nil {
					log.Warn(ctx, "could not schedule match",
						logger.String("listener", listener),
						logger.String("event", m.Event.Title),
						logger.String("outcome", outcome.String()),
						logger.Error(err))
				}
			}
		}
	}

	res, err := s.orchestrator.Run(ctx, RunInput{
		Exclude: state.ExcludedArtists(),
		OnBatch: func(ctx context.Context, b Batch) error {
			schedule(ctx, s.orchestrator.Aggregator().MatchByTitle(b.Events, b.Profiles))
			return s.sink.OnBatchComplete(ctx, b.Events, b.Index, b.Total)
		},
	})
	rep.State = res.State
	rep.Artists = len(res.Artists)
	rep.Events = len(res.Events)
	rep.Matches = res.MatchCount()
	if err != nil {
		return err
	}
	if res.State != StateDone {
		return nil
	}

	schedule(ctx, res.Matches)
	for _, listener := range listeners(res.Matches) {
		matches := res.Matches[listener]
		if len(matches) == 0 {
			continue
		}
		if err := s.sink.OnMatchesReady(ctx, listener, matches); err != nil {
			metrics.RecordNotificationError("matches")
			log.Warn(ctx, "match notification failed", logger.String("listener", listener), logger.Error(err))
		}
	}
	return nil
}

// cleanup removes duplicate entries. Failed deletions are reported but do
// not fail the run.
func (s *Service) cleanup(ctx context.Context, log logger.Logger, rep *RunReport) error {
	deleted, err := s.resolver.Clean(ctx)
	rep.Deleted = deleted
	rep.State = StateDone
	metrics.RecordDuplicatesDeleted(deleted)
	if err == nil {
		return nil
	}
	if errors.Is(err, dedupe.ErrListScheduled) {
		return err
	}
	rep.Error = err.Error()
	log.Warn(ctx, "some duplicates were not deleted", logger.Int("deleted", deleted), logger.Error(err))
	return nil
}

func (s *Service) begin(rep RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &rep
}

func (s *Service) finish(rep RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.last = &rep
	s.runs++
}

func listeners(matches map[string][]model.MatchResult) []string {
	out := make([]string, 0, len(matches))
	for name := range matches {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
