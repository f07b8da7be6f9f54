package model

import "time"

// ScheduledEntry is a calendar entry owned by the external calendar store.
// IDs increase with creation order.
type ScheduledEntry struct {
	ID          uint64
	Name        string
	Description string
	Start       time.Time
	End         time.Time
	Location    string
}

// EntryDraft is what the resolver asks the store to create.
type EntryDraft struct {
	Name        string
	Description string
	Start       time.Time
	End         time.Time
	Location    string
}
