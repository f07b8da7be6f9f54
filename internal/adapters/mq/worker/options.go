package worker

import (
	"github.com/okian/gigradar/pkg/logger"
)

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithName sets the runner name for identification and logging.
func WithName(name string) Option {
	return func(w *Runner) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(w *Runner) {
		if l != nil {
			w.logger = l
		}
	}
}
