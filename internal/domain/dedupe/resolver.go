package dedupe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/internal/domain/similarity"
	"github.com/okian/gigradar/pkg/logger"
)

const (
	// DefaultWindow is the largest start-time gap between fuzzy duplicates.
	DefaultWindow = 24 * time.Hour
	// DefaultTitleThreshold is the fuzzy title score for duplicates.
	DefaultTitleThreshold = 0.85
	// EntryDuration is the assumed length of an event.
	EntryDuration = 3 * time.Hour

	maxListedPerformers = 5
)

// Store is the calendar the resolver reads, creates and deletes entries in.
type Store interface {
	ListScheduled(ctx context.Context) ([]model.ScheduledEntry, error)
	Create(ctx context.Context, draft model.EntryDraft) (model.ScheduledEntry, error)
	Delete(ctx context.Context, entry model.ScheduledEntry) error
}

// Outcome classifies a Create call.
type Outcome int

const (
	Created Outcome = iota
	SkippedThisRun
	SkippedUnparsedDate
	SkippedFuzzy
	SkippedPreviousRun
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case SkippedThisRun:
		return "skipped_this_run"
	case SkippedUnparsedDate:
		return "skipped_unparsed_date"
	case SkippedFuzzy:
		return "skipped_fuzzy"
	case SkippedPreviousRun:
		return "skipped_previous_run"
	default:
		return "failed"
	}
}

// Resolver creates calendar entries for matched events without duplicating
// what is already scheduled.
type Resolver struct {
	store     Store
	window    time.Duration
	threshold float64
	log       logger.Logger
}

// NewResolver creates a Resolver over store.
func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:     store,
		window:    DefaultWindow,
		threshold: DefaultTitleThreshold,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create schedules ev unless it duplicates an entry. It skips when the exact
// key was already created in this run, when the date cannot be parsed, when
// a live scan of the store finds a fuzzy duplicate, or when the canonical key
// was seen in a previous run. Keys are registered only after the store
// accepts the entry.
func (r *Resolver) Create(ctx context.Context, state *RunState, ev model.CatalogEvent, matchedArtist string) (Outcome, *model.ScheduledEntry, error) {
	exact := ExactKey(ev.Title, ev.Date.Raw(), ev.Venue)
	if state.createdThisRun(exact) {
		r.log.Debug(ctx, "skip duplicate created this run", logger.String("title", ev.Title))
		return SkippedThisRun, nil, nil
	}

	start, ok := ev.Date.Time()
	if !ok {
		r.log.Warn(ctx, "skip event with unparsed date",
			logger.String("title", ev.Title), logger.String("date", ev.Date.Raw()))
		return SkippedUnparsedDate, nil, fmt.Errorf("%w: %q for %q", ErrUnparsedDate, ev.Date.Raw(), ev.Title)
	}

	name := CanonicalName(ev.Title)
	existing, err := r.store.ListScheduled(ctx)
	if err != nil {
		return Failed, nil, fmt.Errorf("%w: %w", ErrListScheduled, err)
	}
	if dup, found := r.findFuzzy(name, start, existing); found {
		r.log.Debug(ctx, "skip fuzzy duplicate",
			logger.String("title", ev.Title), logger.String("existing", dup.Name), logger.Any("existing_id", dup.ID))
		return SkippedFuzzy, nil, nil
	}

	canonical := CanonicalKey(name, start, ev.Venue)
	if state.seenPreviously(canonical) {
		r.log.Debug(ctx, "skip duplicate from previous run", logger.String("title", ev.Title))
		return SkippedPreviousRun, nil, nil
	}

	entry, err := r.store.Create(ctx, model.EntryDraft{
		Name:        name,
		Description: Describe(ev, matchedArtist),
		Start:       start,
		End:         start.Add(EntryDuration),
		Location:    ev.Venue,
	})
	if err != nil {
		return Failed, nil, fmt.Errorf("%w: %q: %w", ErrCreate, ev.Title, err)
	}
	state.register(exact, canonical)
	r.log.Info(ctx, "created scheduled entry",
		logger.String("name", entry.Name), logger.Any("id", entry.ID), logger.String("artist", matchedArtist))
	return Created, &entry, nil
}

// findFuzzy returns an entry whose title is close to name and whose start is
// within the window of start.
func (r *Resolver) findFuzzy(name string, start time.Time, entries []model.ScheduledEntry) (model.ScheduledEntry, bool) {
	for _, e := range entries {
		if r.isFuzzyDuplicate(name, start, e.Name, e.Start) {
			return e, true
		}
	}
	return model.ScheduledEntry{}, false
}

func (r *Resolver) isFuzzyDuplicate(name1 string, start1 time.Time, name2 string, start2 time.Time) bool {
	delta := start1.Sub(start2)
	if delta < 0 {
		delta = -delta
	}
	if delta > r.window {
		return false
	}
	return similarity.Ratio(fuzzyTitle(name1), fuzzyTitle(name2)) >= r.threshold
}

// Describe builds the entry description for ev.
func Describe(ev model.CatalogEvent, matchedArtist string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Artist: %s\n", matchedArtist)
	fmt.Fprintf(&b, "Venue: %s\n", ev.Venue)
	if len(ev.Performers) > 0 {
		shown := ev.Performers
		if len(shown) > maxListedPerformers {
			shown = shown[:maxListedPerformers]
		}
		line := strings.Join(shown, ", ")
		if extra := len(ev.Performers) - len(shown); extra > 0 {
			line += fmt.Sprintf(" +%d more", extra)
		}
		fmt.Fprintf(&b, "Artists: %s\n", line)
	}
	if ev.URL != "" {
		fmt.Fprintf(&b, "Tickets: %s\n", ev.URL)
	}
	b.WriteString("\nFound by gigradar from your listening history")
	return truncate(b.String(), maxDescriptionRunes)
}
