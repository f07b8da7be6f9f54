package dedupe

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/pkg/logger"
	"github.com/okian/gigradar/pkg/metrics"
)

// Plan returns the entries that duplicate another entry, in deletion order.
//
// Entries are first grouped around seeds: each unprocessed entry, taken in
// order, collects every other unprocessed entry that is a fuzzy duplicate of
// it. Grouping is not transitive; two entries that only match through a third
// stay apart unless the third is the seed. Entries left untouched are then
// grouped by canonical key. Every group keeps its lowest id.
func (r *Resolver) Plan(entries []model.ScheduledEntry) []model.ScheduledEntry {
	var doomed []model.ScheduledEntry
	processed := make(map[uint64]bool, len(entries))

	for i, seed := range entries {
		if processed[seed.ID] {
			continue
		}
		var group []model.ScheduledEntry
		for j, other := range entries {
			if i == j || processed[other.ID] {
				continue
			}
			if r.isFuzzyDuplicate(seed.Name, seed.Start, other.Name, other.Start) {
				group = append(group, other)
				processed[other.ID] = true
			}
		}
		if len(group) == 0 {
			continue
		}
		processed[seed.ID] = true
		doomed = append(doomed, allButLowest(append(group, seed))...)
	}

	exact := make(map[string][]model.ScheduledEntry)
	var order []string
	for _, e := range entries {
		if processed[e.ID] {
			continue
		}
		key := CanonicalKey(e.Name, e.Start, e.Location)
		if _, ok := exact[key]; !ok {
			order = append(order, key)
		}
		exact[key] = append(exact[key], e)
	}
	for _, key := range order {
		if group := exact[key]; len(group) > 1 {
			doomed = append(doomed, allButLowest(group)...)
		}
	}
	return doomed
}

// Clean deletes duplicate scheduled entries and returns how many were
// removed. A failed deletion is logged and does not stop the rest; the
// failures are joined into the returned error.
func (r *Resolver) Clean(ctx context.Context) (int, error) {
	entries, err := r.store.ListScheduled(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrListScheduled, err)
	}
	doomed := r.Plan(entries)
	r.log.Info(ctx, "scanned scheduled entries",
		logger.Int("entries", len(entries)), logger.Int("duplicates", len(doomed)))

	deleted := 0
	var errs []error
	for _, e := range doomed {
		if err := r.store.Delete(ctx, e); err != nil {
			r.log.Warn(ctx, "failed to delete duplicate entry",
				logger.Any("id", e.ID), logger.String("name", e.Name), logger.Error(err))
			metrics.RecordDeletionError()
			errs = append(errs, fmt.Errorf("%w %d: %w", ErrDelete, e.ID, err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

func allButLowest(group []model.ScheduledEntry) []model.ScheduledEntry {
	sorted := append([]model.ScheduledEntry(nil), group...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted[1:]
}
