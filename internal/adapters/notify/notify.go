// Package notify reports pipeline progress and results to listeners.
package notify

import (
	"context"
	"errors"

	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/pkg/logger"
)

// Sink receives batch progress and final matches. Errors are reported to the
// caller, which logs them and carries on.
type Sink interface {
	OnBatchComplete(ctx context.Context, events []model.CatalogEvent, batchIndex, totalBatches int) error
	OnMatchesReady(ctx context.Context, listener string, matches []model.MatchResult) error
}

// Log writes notifications as structured log lines.
type Log struct {
	log logger.Logger
}

// NewLog creates a Log sink.
func NewLog(l logger.Logger) *Log {
	if l == nil {
		l = logger.NewNop()
	}
	return &Log{log: l}
}

// OnBatchComplete implements Sink.
func (s *Log) OnBatchComplete(ctx context.Context, events []model.CatalogEvent, batchIndex, totalBatches int) error {
	s.log.Info(ctx, "batch complete",
		logger.Int("batch", batchIndex), logger.Int("total_batches", totalBatches), logger.Int("events", len(events)))
	return nil
}

// OnMatchesReady implements Sink.
func (s *Log) OnMatchesReady(ctx context.Context, listener string, matches []model.MatchResult) error {
	for _, m := range matches {
		s.log.Info(ctx, "match",
			logger.String("listener", listener),
			logger.String("artist", m.Artist),
			logger.String("event", m.Event.Title),
			logger.String("venue", m.Event.Venue),
			logger.String("date", m.Event.Date.Raw()),
			logger.Float64("score", m.Score))
	}
	return nil
}

// Multi fans out to every sink and joins their errors.
type Multi []Sink

// OnBatchComplete implements Sink.
func (m Multi) OnBatchComplete(ctx context.Context, events []model.CatalogEvent, batchIndex, totalBatches int) error {
	var errs []error
	for _, s := range m {
		if err := s.OnBatchComplete(ctx, events, batchIndex, totalBatches); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnMatchesReady implements Sink.
func (m Multi) OnMatchesReady(ctx context.Context, listener string, matches []model.MatchResult) error {
	var errs []error
	for _, s := range m {
		if err := s.OnMatchesReady(ctx, listener, matches); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
