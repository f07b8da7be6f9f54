package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/okian/gigradar/internal/domain/dates"
	"github.com/okian/gigradar/internal/domain/model"
)

// Static serves a fixed catalog. A query matches an event when the keyword
// appears in its title or in one of its performers, ignoring case.
type Static struct {
	name   string
	events []model.CatalogEvent
}

// NewStatic creates a Static source named "static".
func NewStatic(events []model.CatalogEvent) *Static {
	return NewNamedStatic("static", events)
}

// NewNamedStatic creates a Static source with a custom name.
func NewNamedStatic(name string, events []model.CatalogEvent) *Static {
	return &Static{name: name, events: append([]model.CatalogEvent(nil), events...)}
}

// Name implements Source.
func (s *Static) Name() string { return s.name }

// Fetch implements Source.
func (s *Static) Fetch(ctx context.Context, q Query) ([]model.CatalogEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kw := strings.ToLower(strings.TrimSpace(q.Keyword))
	var out []model.CatalogEvent
	for _, ev := range s.events {
		if kw != "" && !mentions(ev, kw) {
			continue
		}
		ev.Source = s.name
		out = append(out, ev)
		if q.Size > 0 && len(out) == q.Size {
			break
		}
	}
	return out, nil
}

func mentions(ev model.CatalogEvent, kw string) bool {
	if strings.Contains(strings.ToLower(ev.Title), kw) {
		return true
	}
	for _, p := range ev.Performers {
		if strings.Contains(strings.ToLower(p), kw) {
			return true
		}
	}
	return false
}

type catalogEntry struct {
	Title       string   `json:"title"`
	Venue       string   `json:"venue"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
	Date        string   `json:"date"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Performers  []string `json:"performers"`
}

// LoadCatalog reads a JSON array of events from path.
func LoadCatalog(path string) ([]model.CatalogEvent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var entries []catalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	events := make([]model.CatalogEvent, 0, len(entries))
	for _, e := range entries {
		events = append(events, model.CatalogEvent{
			Title:       e.Title,
			Venue:       e.Venue,
			City:        e.City,
			Country:     e.Country,
			Date:        dates.Parse(e.Date),
			URL:         e.URL,
			Description: e.Description,
			Performers:  e.Performers,
		})
	}
	return events, nil
}
