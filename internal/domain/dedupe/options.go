package dedupe

import (
	"time"

	"github.com/okian/gigradar/pkg/logger"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithWindow sets the largest start-time gap between fuzzy duplicates.
func WithWindow(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.window = d
		}
	}
}

// WithTitleThreshold sets the title score at which entries are fuzzy duplicates.
func WithTitleThreshold(t float64) Option {
	return func(r *Resolver) {
		if t > 0 && t <= 1 {
			r.threshold = t
		}
	}
}

// WithLogger sets the logger for skip and failure reports.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}
