package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/okian/gigradar/internal/adapters/source"
	"github.com/okian/gigradar/internal/domain/dates"
	"github.com/okian/gigradar/internal/domain/matching"
	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/pkg/logger"
	"github.com/okian/gigradar/pkg/metrics"
)

// State is a stage of one recommend pass.
type State string

// Orchestrator states.
const (
	StateIdle            State = "idle"
	StateLoadingProfiles State = "loading_profiles"
	StateBatching        State = "batching"
	StateFetching        State = "fetching"
	StateMatching        State = "matching"
	StateNotifying       State = "notifying"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// Orchestrator defaults.
const (
	DefaultBatchSize    = 10
	DefaultCooldown     = 120 * time.Second
	DefaultMaxArtists   = 30
	DefaultProfileLimit = 100
	DefaultPeriod       = "1month"
)

// ProfileLoader returns the listening profiles of the given users. Users
// that cannot be loaded are left out.
type ProfileLoader interface {
	LoadProfiles(ctx context.Context, usernames []string, period string, limit int) []model.ListenerProfile
}

// CooldownGate blocks until the next batch may start.
type CooldownGate interface {
	Wait(ctx context.Context) error
}

// TimerGate waits a fixed delay.
type TimerGate struct {
	Delay time.Duration
}

// Wait sleeps for Delay or until ctx is done.
func (g TimerGate) Wait(ctx context.Context) error {
	if g.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(g.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Batch is handed to the batch callback after a batch of artists has been
// queried against one source.
type Batch struct {
	Source   string
	Index    int
	Total    int
	Artists  []string
	Events   []model.CatalogEvent
	Profiles []model.ListenerProfile
}

// BatchFunc is invoked synchronously after every batch.
type BatchFunc func(ctx context.Context, b Batch) error

// RunInput parameterizes one pass.
type RunInput struct {
	// Exclude holds artist names to drop from the union, compared case-insensitively.
	Exclude []string
	OnBatch BatchFunc
}

// Result is the outcome of one pass. An empty result is not an error.
type Result struct {
	State    State
	Profiles []model.ListenerProfile
	Artists  []string
	Batches  int
	Events   []model.CatalogEvent
	Matches  map[string][]model.MatchResult
}

// MatchCount returns the number of matches across listeners.
func (r Result) MatchCount() int {
	n := 0
	for _, m := range r.Matches {
		n += len(m)
	}
	return n
}

// Orchestrator drives one recommend pass: load profiles, batch artists,
// query every source per batch with a cooldown between batches, then match.
type Orchestrator struct {
	profiles   ProfileLoader
	sources    []source.Source
	aggregator *matching.Aggregator
	dates      dates.Normalizer
	gate       CooldownGate

	users        []string
	period       string
	profileLimit int
	batchSize    int
	maxArtists   int
	horizonDays  int
	query        source.Query

	state atomic.Value
	log   logger.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithUsers sets the listeners whose profiles are loaded.
func WithUsers(users ...string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.users = append([]string(nil), users...)
	}
}

// WithProfilePeriod sets the period and per-user artist limit for profiles.
func WithProfilePeriod(period string, limit int) OrchestratorOption {
	return func(o *Orchestrator) {
		if period != "" {
			o.period = period
		}
		if limit > 0 {
			o.profileLimit = limit
		}
	}
}

// WithBatchSize sets how many artists are queried per batch.
func WithBatchSize(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithMaxArtists caps the artist union; zero means no cap.
func WithMaxArtists(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxArtists = n
		}
	}
}

// WithHorizonDays sets the future window applied before matching.
func WithHorizonDays(days int) OrchestratorOption {
	return func(o *Orchestrator) {
		if days > 0 {
			o.horizonDays = days
		}
	}
}

// WithCooldownGate replaces the inter-batch gate.
func WithCooldownGate(g CooldownGate) OrchestratorOption {
	return func(o *Orchestrator) {
		if g != nil {
			o.gate = g
		}
	}
}

// WithSearchArea sets the location and category sent with every query.
func WithSearchArea(city, region, country, category string, size int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.query = source.Query{City: city, Region: region, Country: country, Category: category, Size: size}
	}
}

// WithOrchestratorDates replaces the date normalizer used for the future filter.
func WithOrchestratorDates(n dates.Normalizer) OrchestratorOption {
	return func(o *Orchestrator) {
		if n != nil {
			o.dates = n
		}
	}
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(l logger.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// NewOrchestrator creates an Orchestrator. A nil aggregator uses matching defaults.
func NewOrchestrator(profiles ProfileLoader, sources []source.Source, aggregator *matching.Aggregator, opts ...OrchestratorOption) *Orchestrator {
	if aggregator == nil {
		aggregator = matching.New(nil)
	}
	o := &Orchestrator{
		profiles:     profiles,
		sources:      sources,
		aggregator:   aggregator,
		dates:        dates.NewValidator(),
		gate:         TimerGate{Delay: DefaultCooldown},
		period:       DefaultPeriod,
		profileLimit: DefaultProfileLimit,
		batchSize:    DefaultBatchSize,
		maxArtists:   DefaultMaxArtists,
		horizonDays:  matching.DefaultHorizonDays,
		log:          logger.GetOrNop().Named("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.state.Store(StateIdle)
	return o
}

// Aggregator returns the matcher used for the final pass.
func (o *Orchestrator) Aggregator() *matching.Aggregator { return o.aggregator }

// State returns the stage of the current or last pass.
func (o *Orchestrator) State() State {
	s, _ := o.state.Load().(State)
	return s
}

func (o *Orchestrator) enter(s State) { o.state.Store(s) }

// Run executes one pass. Provider and callback failures are logged and do
// not stop the pass; only cancellation, observed between batches, returns
// an error.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) (Result, error) {
	o.enter(StateLoadingProfiles)
	profiles := o.profiles.LoadProfiles(ctx, o.users, o.period, o.profileLimit)
	if len(profiles) == 0 {
		o.log.Warn(ctx, "no listener profiles loaded", logger.Int("users", len(o.users)))
		o.enter(StateFailed)
		return Result{State: StateFailed}, nil
	}

	artists := o.artistUnion(profiles, in.Exclude)
	if len(artists) == 0 {
		o.log.Warn(ctx, "no artists left to search", logger.Int("excluded", len(in.Exclude)))
		o.enter(StateFailed)
		return Result{State: StateFailed, Profiles: profiles}, nil
	}

	o.enter(StateBatching)
	batches := chunk(artists, o.batchSize)
	o.log.Info(ctx, "starting pass",
		logger.Int("profiles", len(profiles)),
		logger.Int("artists", len(artists)),
		logger.Int("batches", len(batches)),
		logger.Int("sources", len(o.sources)))

	var all []model.CatalogEvent
	for _, src := range o.sources {
		for i, batch := range batches {
			if err := ctx.Err(); err != nil {
				return o.cancelled(profiles, artists, len(batches), all, err)
			}

			o.enter(StateFetching)
			events := o.fetchBatch(ctx, src, batch)
			all = append(all, events...)
			metrics.RecordBatch(src.Name())

			if in.OnBatch != nil {
				o.enter(StateNotifying)
				o.invoke(ctx, in.OnBatch, Batch{
					Source:   src.Name(),
					Index:    i + 1,
					Total:    len(batches),
					Artists:  batch,
					Events:   events,
					Profiles: profiles,
				})
			}

			if i == len(batches)-1 {
				continue
			}
			if err := ctx.Err(); err != nil {
				return o.cancelled(profiles, artists, len(batches), all, err)
			}
			metrics.RecordCooldown()
			o.log.Debug(ctx, "cooling down before next batch",
				logger.String("source", src.Name()), logger.Int("next", i+2))
			if err := o.gate.Wait(ctx); err != nil {
				return o.cancelled(profiles, artists, len(batches), all, err)
			}
		}
	}

	o.enter(StateMatching)
	upcoming := o.upcoming(ctx, dedupeEvents(all))
	start := time.Now()
	matches := o.aggregator.FindMatches(profiles, upcoming)
	metrics.RecordMatchingLatency(time.Since(start))

	res := Result{
		State:    StateDone,
		Profiles: profiles,
		Artists:  artists,
		Batches:  len(batches),
		Events:   upcoming,
		Matches:  matches,
	}
	metrics.RecordMatches(res.MatchCount())
	o.enter(StateDone)
	o.log.Info(ctx, "pass complete",
		logger.Int("events", len(upcoming)), logger.Int("matches", res.MatchCount()))
	return res, nil
}

func (o *Orchestrator) cancelled(profiles []model.ListenerProfile, artists []string, batches int, events []model.CatalogEvent, err error) (Result, error) {
	o.enter(StateFailed)
	return Result{
		State:    StateFailed,
		Profiles: profiles,
		Artists:  artists,
		Batches:  batches,
		Events:   events,
	}, fmt.Errorf("pass interrupted: %w", err)
}

// artistUnion returns distinct artist names in first-appearance order,
// minus exclusions, capped at maxArtists.
func (o *Orchestrator) artistUnion(profiles []model.ListenerProfile, exclude []string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, p := range profiles {
		for _, name := range p.ArtistNames() {
			key := strings.ToLower(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			if _, ok := skip[key]; ok {
				continue
			}
			out = append(out, name)
		}
	}
	if o.maxArtists > 0 && len(out) > o.maxArtists {
		out = out[:o.maxArtists]
	}
	return out
}

// fetchBatch queries src for every artist. A failing artist contributes no
// events.
func (o *Orchestrator) fetchBatch(ctx context.Context, src source.Source, artists []string) []model.CatalogEvent {
	var events []model.CatalogEvent
	for _, artist := range artists {
		q := o.query
		q.Keyword = artist
		found, err := src.Fetch(ctx, q)
		if err != nil {
			o.log.Warn(ctx, "provider query failed",
				logger.String("source", src.Name()), logger.String("artist", artist), logger.Error(err))
			continue
		}
		events = append(events, found...)
	}
	return events
}

// invoke runs the callback, containing both errors and panics.
func (o *Orchestrator) invoke(ctx context.Context, fn BatchFunc, b Batch) {
	defer func() {
		if p := recover(); p != nil {
			metrics.RecordCallbackError()
			o.log.Warn(ctx, "batch callback panicked",
				logger.String("source", b.Source), logger.Int("batch", b.Index), logger.Any("panic", p))
		}
	}()
	if err := fn(ctx, b); err != nil {
		metrics.RecordCallbackError()
		o.log.Warn(ctx, "batch callback failed",
			logger.String("source", b.Source), logger.Int("batch", b.Index), logger.Error(err))
	}
}

// upcoming keeps events inside the horizon; unparseable dates are dropped.
func (o *Orchestrator) upcoming(ctx context.Context, events []model.CatalogEvent) []model.CatalogEvent {
	out := make([]model.CatalogEvent, 0, len(events))
	for _, ev := range events {
		if !ev.Date.IsParsed() {
			if _, ok := o.dates.Parse(ev.Date.Raw()); !ok {
				metrics.RecordDateParseFailure()
				o.log.Warn(ctx, "dropping event with unparseable date",
					logger.String("title", ev.Title), logger.String("date", ev.Date.Raw()))
				continue
			}
		}
		if o.dates.IsFuture(ev.Date.Raw(), o.horizonDays) {
			out = append(out, ev)
		}
	}
	return out
}

// dedupeEvents keeps the first event per title, raw date and venue.
func dedupeEvents(events []model.CatalogEvent) []model.CatalogEvent {
	seen := make(map[string]struct{}, len(events))
	out := make([]model.CatalogEvent, 0, len(events))
	for _, ev := range events {
		key := ev.IdentityKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ev)
	}
	return out
}

func chunk(items []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
