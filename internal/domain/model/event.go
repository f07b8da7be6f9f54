package model

import (
	"fmt"

	"github.com/okian/gigradar/internal/domain/dates"
)

// CatalogEvent is one upcoming event as returned by a provider. It is never persisted.
type CatalogEvent struct {
	Title       string
	Venue       string
	City        string
	Country     string
	Date        dates.Date
	URL         string
	Description string
	ImageURL    string
	Performers  []string
	Source      string // provider that returned the event
}

// IdentityKey identifies the event across providers by literal title, raw date and venue.
func (e CatalogEvent) IdentityKey() string {
	return e.Title + "|" + e.Date.Raw() + "|" + e.Venue
}

// TitleDateKey identifies the event for per-listener match collapsing.
func (e CatalogEvent) TitleDateKey() string {
	return e.Title + "_" + e.Date.Raw()
}

func (e CatalogEvent) String() string {
	if t, ok := e.Date.Time(); ok {
		return fmt.Sprintf("%s at %s on %s", e.Title, e.Venue, t.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s at %s", e.Title, e.Venue)
}

// MatchResult pairs an event with the listener artist it matched.
type MatchResult struct {
	Event  CatalogEvent
	Artist string  // the listener's artist name
	Score  float64 // similarity in [0,1]
}
