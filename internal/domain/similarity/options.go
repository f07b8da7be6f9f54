package similarity

// Option configures a Scorer.
type Option func(*Scorer)

// WithThreshold sets the minimum score for a valid match. Values outside (0,1] are ignored.
func WithThreshold(t float64) Option {
	return func(s *Scorer) {
		if t > 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithExactThreshold sets the score at which a match is accepted outright.
func WithExactThreshold(t float64) Option {
	return func(s *Scorer) {
		if t > 0 && t <= 1 {
			s.exactThreshold = t
		}
	}
}

// WithCleanThreshold sets the score cleaned names must reach.
func WithCleanThreshold(t float64) Option {
	return func(s *Scorer) {
		if t > 0 && t <= 1 {
			s.cleanThreshold = t
		}
	}
}

// WithTokenOverlap sets the fraction of the shorter word set that must be shared.
func WithTokenOverlap(f float64) Option {
	return func(s *Scorer) {
		if f > 0 && f <= 1 {
			s.tokenOverlap = f
		}
	}
}
