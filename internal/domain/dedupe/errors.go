package dedupe

import "errors"

var (
	// ErrUnparsedDate is returned when an event has no usable start time.
	ErrUnparsedDate = errors.New("event date could not be parsed")
	// ErrListScheduled is returned when the store cannot list existing entries.
	ErrListScheduled = errors.New("list scheduled entries")
	// ErrCreate is returned when the store rejects a new entry.
	ErrCreate = errors.New("create scheduled entry")
	// ErrDelete wraps per-entry deletion failures during cleanup.
	ErrDelete = errors.New("delete scheduled entry")
)
