package model

import "time"

// RunKind selects what a pipeline run does.
type RunKind string

const (
	// RunRecommend fetches events, matches them and schedules entries.
	RunRecommend RunKind = "recommend"
	// RunCleanup removes duplicate scheduled entries.
	RunCleanup RunKind = "cleanup"
)

// Valid reports whether k is a known run kind.
func (k RunKind) Valid() bool {
	return k == RunRecommend || k == RunCleanup
}

// RunRequest is one queued trigger.
type RunRequest struct {
	ID          string
	Kind        RunKind
	RequestedAt time.Time
}
