package similarity

import (
	"strings"
	"unicode/utf8"
)

// Defaults for the match cascade.
const (
	DefaultThreshold      = 0.85
	DefaultExactThreshold = 0.95
	DefaultCleanThreshold = 0.85
	DefaultTokenOverlap   = 0.7

	minContainLen = 4
	minCleanLen   = 3
	minTokens     = 2
)

// Scorer applies Ratio and the validity cascade with a configurable threshold.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	threshold      float64
	exactThreshold float64
	cleanThreshold float64
	tokenOverlap   float64
}

// New creates a Scorer with defaults, modified by opts.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		threshold:      DefaultThreshold,
		exactThreshold: DefaultExactThreshold,
		cleanThreshold: DefaultCleanThreshold,
		tokenOverlap:   DefaultTokenOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the minimum score a valid match must reach.
func (s *Scorer) Threshold() float64 { return s.threshold }

// Score is Ratio.
func (s *Scorer) Score(a, b string) float64 { return Ratio(a, b) }

// IsValidMatch decides whether candidate and reference name the same artist
// given their precomputed score. The first rule that accepts wins:
//
//  1. score below the threshold is never a match
//  2. score at or above the exact threshold is
//  3. either name contains the other, both at least 4 runes long
//  4. the cleaned names score at least the clean threshold, both at least 3 runes long
//  5. both cleaned names have 2+ words and share at least 70% of the shorter word set
func (s *Scorer) IsValidMatch(candidate, reference string, score float64) bool {
	if score < s.threshold {
		return false
	}
	if score >= s.exactThreshold {
		return true
	}

	c := strings.TrimSpace(strings.ToLower(candidate))
	r := strings.TrimSpace(strings.ToLower(reference))
	if utf8.RuneCountInString(c) >= minContainLen && utf8.RuneCountInString(r) >= minContainLen {
		if strings.Contains(c, r) || strings.Contains(r, c) {
			return true
		}
	}

	cc, rc := Clean(c), Clean(r)
	if utf8.RuneCountInString(cc) >= minCleanLen && utf8.RuneCountInString(rc) >= minCleanLen {
		if Ratio(cc, rc) >= s.cleanThreshold {
			return true
		}
	}

	return s.tokensOverlap(cc, rc)
}

func (s *Scorer) tokensOverlap(a, b string) bool {
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) < minTokens || len(wb) < minTokens {
		return false
	}
	common := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			common++
		}
	}
	return float64(common) >= s.tokenOverlap*float64(min(len(wa), len(wb)))
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
