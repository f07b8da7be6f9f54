package service

import "errors"

var (
	// ErrRunInProgress is returned when a trigger cannot be accepted because
	// a run is active and the trigger queue is full.
	ErrRunInProgress = errors.New("run in progress")
	// ErrNotStarted is returned by Trigger before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrUnknownRunKind is returned for a run kind the service does not handle.
	ErrUnknownRunKind = errors.New("unknown run kind")
	// ErrRunPanicked marks a run that was stopped by a panic.
	ErrRunPanicked = errors.New("run panicked")
)
