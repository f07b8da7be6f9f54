package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/gigradar/internal/adapters/httpclient"
	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/pkg/logger"
	"github.com/okian/gigradar/pkg/metrics"
)

const (
	defaultGuardTimeout = 15 * time.Second
	breakerMinRequests  = 5
	breakerFailureRatio = 0.6
	breakerInterval     = time.Minute
	breakerOpenTimeout  = 2 * time.Minute
)

// Guard wraps a Source with a per-call timeout and a circuit breaker. Every
// failure, including a rejected call while the breaker is open, is wrapped
// in ErrProvider. Only provider-health failures move the breaker; an error
// about a single artist (a 4xx or an undecodable body) is still returned
// but counts as a successful call.
type Guard struct {
	next    Source
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[[]model.CatalogEvent]
	log     logger.Logger
}

// GuardOption configures a Guard.
type GuardOption func(*guardConfig)

type guardConfig struct {
	timeout     time.Duration
	minRequests uint32
	openTimeout time.Duration
	log         logger.Logger
}

// WithCallTimeout bounds each Fetch.
func WithCallTimeout(d time.Duration) GuardOption {
	return func(c *guardConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBreakerThreshold sets how many calls must be seen before the breaker may open.
func WithBreakerThreshold(n uint32) GuardOption {
	return func(c *guardConfig) {
		if n > 0 {
			c.minRequests = n
		}
	}
}

// WithBreakerOpenTimeout sets how long the breaker stays open.
func WithBreakerOpenTimeout(d time.Duration) GuardOption {
	return func(c *guardConfig) {
		if d > 0 {
			c.openTimeout = d
		}
	}
}

// WithGuardLogger sets the logger for breaker transitions.
func WithGuardLogger(l logger.Logger) GuardOption {
	return func(c *guardConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// NewGuard wraps next.
func NewGuard(next Source, opts ...GuardOption) *Guard {
	cfg := guardConfig{
		timeout:     defaultGuardTimeout,
		minRequests: breakerMinRequests,
		openTimeout: breakerOpenTimeout,
		log:         logger.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	name := next.Name()
	log := cfg.log
	metrics.UpdateCircuitBreakerState(name, stateValue(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[[]model.CatalogEvent](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    breakerInterval,
		Timeout:     cfg.openTimeout,
		IsSuccessful: func(err error) bool {
			return !providerUnhealthy(err)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= breakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "circuit breaker state change",
				logger.String("source", name), logger.String("from", from.String()), logger.String("to", to.String()))
			metrics.UpdateCircuitBreakerState(name, stateValue(to))
		},
	})

	return &Guard{next: next, timeout: cfg.timeout, cb: cb, log: log}
}

// Name returns the wrapped source's name.
func (g *Guard) Name() string { return g.next.Name() }

// Fetch calls the wrapped source through the breaker.
func (g *Guard) Fetch(ctx context.Context, q Query) ([]model.CatalogEvent, error) {
	start := time.Now()
	events, err := g.cb.Execute(func() ([]model.CatalogEvent, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return g.next.Fetch(callCtx, q)
	})
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordProviderRequest(g.Name(), "rejected", elapsed)
		return nil, fmt.Errorf("%w: %s: %w", ErrProvider, g.Name(), err)
	case err != nil:
		metrics.RecordProviderRequest(g.Name(), "failure", elapsed)
		if errors.Is(err, ErrProvider) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrProvider, g.Name(), err)
	}
	metrics.RecordProviderRequest(g.Name(), "success", elapsed)
	metrics.RecordEventsFetched(g.Name(), len(events))
	return events, nil
}

// State returns the breaker state.
func (g *Guard) State() gobreaker.State { return g.cb.State() }

// providerUnhealthy reports whether err says the provider itself is failing:
// transport errors, timeouts, 429 and 5xx responses.
func providerUnhealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
