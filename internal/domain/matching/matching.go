// Package matching pairs listener profiles with catalog events.
package matching

import (
	"sort"

	"github.com/okian/gigradar/internal/domain/dates"
	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/internal/domain/similarity"
)

// DefaultHorizonDays bounds how far ahead MatchByTitle looks.
const DefaultHorizonDays = 90

// Aggregator applies a similarity.Scorer across (listener, event) pairs.
type Aggregator struct {
	scorer      *similarity.Scorer
	dates       dates.Normalizer
	horizonDays int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithHorizonDays sets the future window used by MatchByTitle.
func WithHorizonDays(days int) Option {
	return func(a *Aggregator) {
		if days > 0 {
			a.horizonDays = days
		}
	}
}

// WithDates replaces the date normalizer used by MatchByTitle.
func WithDates(n dates.Normalizer) Option {
	return func(a *Aggregator) {
		if n != nil {
			a.dates = n
		}
	}
}

// New creates an Aggregator. A nil scorer uses similarity defaults.
func New(scorer *similarity.Scorer, opts ...Option) *Aggregator {
	if scorer == nil {
		scorer = similarity.New()
	}
	a := &Aggregator{
		scorer:      scorer,
		dates:       dates.NewValidator(),
		horizonDays: DefaultHorizonDays,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FindMatches scores every performer of every event against each listener's
// artists. Per listener, events sharing title and raw date collapse to the
// highest-scoring match, and results are ordered by score, highest first.
// Every listener appears in the result, possibly with no matches.
func (a *Aggregator) FindMatches(profiles []model.ListenerProfile, events []model.CatalogEvent) map[string][]model.MatchResult {
	out := make(map[string][]model.MatchResult, len(profiles))
	for _, p := range profiles {
		names := p.ArtistNames()
		var found []model.MatchResult
		for _, ev := range events {
			for _, performer := range ev.Performers {
				artist, score, ok := a.best(performer, names)
				if ok {
					found = append(found, model.MatchResult{Event: ev, Artist: artist, Score: score})
				}
			}
		}
		out[p.Username] = collapse(found)
	}
	return out
}

// MatchByTitle is FindMatches for events without performer lists: the event
// title is scored against the artist names, and only events dated inside the
// future horizon are considered.
func (a *Aggregator) MatchByTitle(events []model.CatalogEvent, profiles []model.ListenerProfile) map[string][]model.MatchResult {
	upcoming := make([]model.CatalogEvent, 0, len(events))
	for _, ev := range events {
		if a.dates.IsFuture(ev.Date.Raw(), a.horizonDays) {
			upcoming = append(upcoming, ev)
		}
	}

	out := make(map[string][]model.MatchResult, len(profiles))
	for _, p := range profiles {
		names := p.ArtistNames()
		var found []model.MatchResult
		for _, ev := range upcoming {
			if artist, score, ok := a.best(ev.Title, names); ok {
				found = append(found, model.MatchResult{Event: ev, Artist: artist, Score: score})
			}
		}
		out[p.Username] = collapse(found)
	}
	return out
}

// best returns the highest-scoring artist that passes the validity cascade.
func (a *Aggregator) best(candidate string, artists []string) (string, float64, bool) {
	var (
		bestArtist string
		bestScore  float64
	)
	for _, artist := range artists {
		score := a.scorer.Score(candidate, artist)
		if score > bestScore && a.scorer.IsValidMatch(candidate, artist, score) {
			bestScore = score
			bestArtist = artist
		}
	}
	if bestArtist == "" || bestScore < a.scorer.Threshold() {
		return "", 0, false
	}
	return bestArtist, bestScore, true
}

// collapse keeps the best match per title and date, first seen on ties, and
// sorts by descending score.
func collapse(found []model.MatchResult) []model.MatchResult {
	index := make(map[string]int, len(found))
	unique := make([]model.MatchResult, 0, len(found))
	for _, m := range found {
		key := m.Event.TitleDateKey()
		if i, ok := index[key]; ok {
			if m.Score > unique[i].Score {
				unique[i] = m
			}
			continue
		}
		index[key] = len(unique)
		unique = append(unique, m)
	}
	sort.SliceStable(unique, func(i, j int) bool { return unique[i].Score > unique[j].Score })
	return unique
}
