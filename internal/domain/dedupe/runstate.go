package dedupe

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/gigradar/internal/domain/model"
)

// RunState holds the identity keys of one run. It is built at run start,
// passed to the Resolver, and dropped when the run ends.
type RunState struct {
	id        string
	startedAt time.Time

	created KeySet // exact keys created during this run
	seen    KeySet // canonical keys of entries that existed before or were created

	seedOnce sync.Once
	excluded []string
}

// NewRunState creates an empty RunState with a fresh run id.
func NewRunState() *RunState {
	return &RunState{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		created:   NewKeySet(),
		seen:      NewKeySet(),
	}
}

// ID returns the run id.
func (s *RunState) ID() string { return s.id }

// StartedAt returns when the run state was created.
func (s *RunState) StartedAt() time.Time { return s.startedAt }

// Seed records the canonical keys and normalized titles of already scheduled
// entries. Only the first call has any effect.
func (s *RunState) Seed(entries []model.ScheduledEntry) {
	s.seedOnce.Do(func() {
		titles := make(map[string]struct{}, len(entries))
		for _, e := range entries {
			s.seen.SeenAndRecord(CanonicalKey(e.Name, e.Start, e.Location))
			t := NormalizeTitle(e.Name)
			if t == "" {
				continue
			}
			if _, dup := titles[t]; !dup {
				titles[t] = struct{}{}
				s.excluded = append(s.excluded, t)
			}
		}
	})
}

// ExcludedArtists returns the normalized titles of entries present at seed
// time, used to skip artists that already have something scheduled.
func (s *RunState) ExcludedArtists() []string {
	return append([]string(nil), s.excluded...)
}

// CreatedCount returns the number of entries created during the run.
func (s *RunState) CreatedCount() int64 { return s.created.Size() }

// SeenCount returns the number of canonical keys known to the run.
func (s *RunState) SeenCount() int64 { return s.seen.Size() }

// createdThisRun reports whether the exact key was already created.
func (s *RunState) createdThisRun(key string) bool { return s.created.Has(key) }

// seenPreviously reports whether the canonical key is known.
func (s *RunState) seenPreviously(key string) bool { return s.seen.Has(key) }

func (s *RunState) register(exact, canonical string) {
	s.created.SeenAndRecord(exact)
	s.seen.SeenAndRecord(canonical)
}
