package source

import (
	"context"
	"net/url"
	"strings"

	"github.com/okian/gigradar/internal/adapters/httpclient"
	"github.com/okian/gigradar/internal/domain/dates"
	"github.com/okian/gigradar/internal/domain/model"
)

// BandsintownBaseURL is the REST API root.
const BandsintownBaseURL = "https://rest.bandsintown.com"

// Bandsintown lists an artist's upcoming events.
type Bandsintown struct {
	appID  string
	client *httpclient.Client
}

// NewBandsintown creates a Bandsintown source using client for I/O.
func NewBandsintown(appID string, client *httpclient.Client) *Bandsintown {
	return &Bandsintown{appID: appID, client: client}
}

// Name implements Source.
func (b *Bandsintown) Name() string { return "bandsintown" }

type bitEvent struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Datetime    string `json:"datetime"`
	Venue       struct {
		Name    string `json:"name"`
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"venue"`
	Artist struct {
		Name     string `json:"name"`
		ImageURL string `json:"image_url"`
	} `json:"artist"`
	Lineup []string `json:"lineup"`
}

// Fetch implements Source. The keyword is the artist name; city and region
// restrict results to that location when set.
func (b *Bandsintown) Fetch(ctx context.Context, q Query) ([]model.CatalogEvent, error) {
	if strings.TrimSpace(q.Keyword) == "" {
		return nil, nil
	}
	params := url.Values{
		"app_id": {b.appID},
		"date":   {"upcoming"},
	}
	if loc := location(q); loc != "" {
		params.Set("location", loc)
	}

	var raw []bitEvent
	path := "/artists/" + url.PathEscape(q.Keyword) + "/events"
	if err := b.client.GetJSON(ctx, path, params, &raw); err != nil {
		return nil, err
	}

	events := make([]model.CatalogEvent, 0, len(raw))
	for i := range raw {
		events = append(events, b.convert(&raw[i], q.Keyword))
		if q.Size > 0 && len(events) == q.Size {
			break
		}
	}
	return events, nil
}

func (b *Bandsintown) convert(e *bitEvent, artist string) model.CatalogEvent {
	performer := artist
	if e.Artist.Name != "" {
		performer = e.Artist.Name
	}
	title := e.Title
	if title == "" {
		title = performer
	}
	venue := e.Venue.Name
	if venue == "" {
		venue = unknownVenue
	}
	performers := e.Lineup
	if len(performers) == 0 {
		performers = []string{performer}
	}
	return model.CatalogEvent{
		Title:       title,
		Venue:       venue,
		City:        e.Venue.City,
		Country:     e.Venue.Country,
		Date:        dates.Parse(e.Datetime),
		URL:         e.URL,
		Description: e.Description,
		ImageURL:    e.Artist.ImageURL,
		Performers:  performers,
		Source:      b.Name(),
	}
}

func location(q Query) string {
	switch {
	case q.City != "" && q.Region != "":
		return q.City + "," + q.Region
	case q.City != "":
		return q.City
	default:
		return ""
	}
}
