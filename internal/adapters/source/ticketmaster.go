package source

import (
	"context"
	"net/url"
	"sort"
	"strconv"

	"github.com/okian/gigradar/internal/adapters/httpclient"
	"github.com/okian/gigradar/internal/domain/dates"
	"github.com/okian/gigradar/internal/domain/model"
)

// TicketmasterBaseURL is the Discovery API root.
const TicketmasterBaseURL = "https://app.ticketmaster.com/discovery/v2"

const unknownVenue = "Unknown Venue"

// Ticketmaster searches the Discovery API by keyword.
type Ticketmaster struct {
	apiKey string
	client *httpclient.Client
}

// NewTicketmaster creates a Ticketmaster source using client for I/O.
func NewTicketmaster(apiKey string, client *httpclient.Client) *Ticketmaster {
	return &Ticketmaster{apiKey: apiKey, client: client}
}

// Name implements Source.
func (t *Ticketmaster) Name() string { return "ticketmaster" }

type tmResponse struct {
	Embedded struct {
		Events []tmEvent `json:"events"`
	} `json:"_embedded"`
}

type tmEvent struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Info  string `json:"info"`
	Dates struct {
		Start struct {
			DateTime  string `json:"dateTime"`
			LocalDate string `json:"localDate"`
		} `json:"start"`
	} `json:"dates"`
	Images []struct {
		URL   string `json:"url"`
		Width int    `json:"width"`
	} `json:"images"`
	Embedded struct {
		Venues []struct {
			Name string `json:"name"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
			Country struct {
				Name        string `json:"name"`
				CountryCode string `json:"countryCode"`
			} `json:"country"`
		} `json:"venues"`
		Attractions []struct {
			Name string `json:"name"`
		} `json:"attractions"`
	} `json:"_embedded"`
}

// Fetch implements Source.
func (t *Ticketmaster) Fetch(ctx context.Context, q Query) ([]model.CatalogEvent, error) {
	params := url.Values{
		"apikey": {t.apiKey},
		"sort":   {"date,asc"},
	}
	setIf(params, "keyword", q.Keyword)
	setIf(params, "city", q.City)
	setIf(params, "stateCode", q.Region)
	setIf(params, "countryCode", q.Country)
	setIf(params, "classificationName", q.Category)
	if q.Size > 0 {
		params.Set("size", strconv.Itoa(q.Size))
	}

	var resp tmResponse
	if err := t.client.GetJSON(ctx, "/events.json", params, &resp); err != nil {
		return nil, err
	}

	events := make([]model.CatalogEvent, 0, len(resp.Embedded.Events))
	for i := range resp.Embedded.Events {
		events = append(events, t.convert(&resp.Embedded.Events[i], q))
	}
	return events, nil
}

func (t *Ticketmaster) convert(e *tmEvent, q Query) model.CatalogEvent {
	ev := model.CatalogEvent{
		Title:       e.Name,
		Venue:       unknownVenue,
		City:        q.City,
		Country:     q.Country,
		URL:         e.URL,
		Description: e.Info,
		Source:      t.Name(),
	}
	if ev.Title == "" {
		ev.Title = "Unknown Event"
	}

	raw := e.Dates.Start.DateTime
	if raw == "" {
		raw = e.Dates.Start.LocalDate
	}
	ev.Date = dates.Parse(raw)

	if venues := e.Embedded.Venues; len(venues) > 0 {
		v := venues[0]
		if v.Name != "" {
			ev.Venue = v.Name
		}
		if v.City.Name != "" {
			ev.City = v.City.Name
		}
		if v.Country.Name != "" {
			ev.Country = v.Country.Name
		}
	}
	for _, a := range e.Embedded.Attractions {
		if a.Name != "" {
			ev.Performers = append(ev.Performers, a.Name)
		}
	}
	if len(e.Images) > 0 {
		imgs := append(e.Images[:0:0], e.Images...)
		sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].Width > imgs[j].Width })
		ev.ImageURL = imgs[0].URL
	}
	return ev
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
