package source_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/gigradar/internal/adapters/httpclient"
	"github.com/okian/gigradar/internal/adapters/source"
	"github.com/okian/gigradar/internal/domain/dates"
	"github.com/okian/gigradar/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func client(url string) *httpclient.Client {
	return httpclient.New(url, httpclient.WithInterval(0), httpclient.WithMaxRetries(0))
}

const tmPayload = `{
  "_embedded": {
    "events": [
      {
        "name": "Radiohead World Tour",
        "url": "https://tm.example/e/1",
        "info": "All ages",
        "dates": {"start": {"dateTime": "2026-11-15T01:00:00Z", "localDate": "2026-11-14"}},
        "images": [{"url": "small.jpg", "width": 100}, {"url": "big.jpg", "width": 1024}],
        "_embedded": {
          "venues": [{"name": "State Farm Arena", "city": {"name": "Atlanta"}, "country": {"name": "United States Of America", "countryCode": "US"}}],
          "attractions": [{"name": "Radiohead"}, {"name": ""}, {"name": "Support Act"}]
        }
      },
      {
        "name": "",
        "dates": {"start": {"localDate": "2026-12-01"}}
      }
    ]
  }
}`

func TestTicketmaster(t *testing.T) {
	Convey("Given a Discovery API server", t, func() {
		var gotPath string
		var gotQuery map[string][]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.Query()
			_, _ = w.Write([]byte(tmPayload))
		}))
		defer srv.Close()

		tm := source.NewTicketmaster("key", client(srv.URL))
		events, err := tm.Fetch(context.Background(), source.Query{
			Keyword: "Radiohead", City: "Atlanta", Region: "GA", Country: "US", Category: "music", Size: 10,
		})

		Convey("Then the request carries the search parameters", func() {
			So(err, ShouldBeNil)
			So(gotPath, ShouldEqual, "/events.json")
			So(gotQuery["apikey"], ShouldResemble, []string{"key"})
			So(gotQuery["keyword"], ShouldResemble, []string{"Radiohead"})
			So(gotQuery["stateCode"], ShouldResemble, []string{"GA"})
			So(gotQuery["countryCode"], ShouldResemble, []string{"US"})
			So(gotQuery["classificationName"], ShouldResemble, []string{"music"})
			So(gotQuery["size"], ShouldResemble, []string{"10"})
		})

		Convey("Then events are converted", func() {
			So(events, ShouldHaveLength, 2)
			first := events[0]
			So(first.Title, ShouldEqual, "Radiohead World Tour")
			So(first.Venue, ShouldEqual, "State Farm Arena")
			So(first.City, ShouldEqual, "Atlanta")
			So(first.Date.Raw(), ShouldEqual, "2026-11-15T01:00:00Z")
			So(first.Date.IsParsed(), ShouldBeTrue)
			So(first.Performers, ShouldResemble, []string{"Radiohead", "Support Act"})
			So(first.ImageURL, ShouldEqual, "big.jpg")
			So(first.Description, ShouldEqual, "All ages")
			So(first.Source, ShouldEqual, "ticketmaster")

			second := events[1]
			So(second.Title, ShouldEqual, "Unknown Event")
			So(second.Venue, ShouldEqual, "Unknown Venue")
			So(second.Date.Raw(), ShouldEqual, "2026-12-01")
			So(second.City, ShouldEqual, "Atlanta")
		})
	})
}

func TestBandsintown(t *testing.T) {
	Convey("Given a Bandsintown server", t, func() {
		var gotPath, gotLocation string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			gotLocation = r.URL.Query().Get("location")
			_, _ = w.Write([]byte(`[
			  {"title": "", "url": "https://bit.example/1", "datetime": "2026-11-20T20:00:00",
			   "venue": {"name": "Terminal West", "city": "Atlanta", "country": "United States"},
			   "artist": {"name": "Big Thief", "image_url": "bt.jpg"}},
			  {"title": "Big Thief with Friends", "datetime": "2026-11-21T20:00:00",
			   "venue": {"name": ""}, "lineup": ["Big Thief", "Friend"]}
			]`))
		}))
		defer srv.Close()

		bit := source.NewBandsintown("app", client(srv.URL))
		events, err := bit.Fetch(context.Background(), source.Query{Keyword: "Big Thief", City: "Atlanta", Region: "GA"})

		So(err, ShouldBeNil)
		So(gotPath, ShouldEqual, "/artists/Big%20Thief/events")
		So(gotLocation, ShouldEqual, "Atlanta,GA")
		So(events, ShouldHaveLength, 2)
		So(events[0].Title, ShouldEqual, "Big Thief")
		So(events[0].Performers, ShouldResemble, []string{"Big Thief"})
		So(events[0].ImageURL, ShouldEqual, "bt.jpg")
		So(events[1].Venue, ShouldEqual, "Unknown Venue")
		So(events[1].Performers, ShouldResemble, []string{"Big Thief", "Friend"})
		So(events[1].Source, ShouldEqual, "bandsintown")
	})

	Convey("Given an empty keyword", t, func() {
		bit := source.NewBandsintown("app", client("http://127.0.0.1:1"))
		events, err := bit.Fetch(context.Background(), source.Query{})
		So(err, ShouldBeNil)
		So(events, ShouldBeEmpty)
	})
}

func TestStatic(t *testing.T) {
	Convey("Given a static catalog", t, func() {
		s := source.NewStatic([]model.CatalogEvent{
			{Title: "Radiohead Live", Performers: []string{"Radiohead"}, Date: dates.Parse("2026-11-01")},
			{Title: "Jazz Night", Performers: []string{"Kamasi Washington"}},
			{Title: "Mixed Bill", Performers: []string{"Interpol", "Radiohead"}},
		})

		Convey("When querying by artist", func() {
			events, err := s.Fetch(context.Background(), source.Query{Keyword: "radiohead"})
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 2)
			So(events[0].Source, ShouldEqual, "static")
		})

		Convey("When the size is capped", func() {
			events, _ := s.Fetch(context.Background(), source.Query{Size: 1})
			So(events, ShouldHaveLength, 1)
		})
	})

	Convey("Given a JSON catalog file", t, func() {
		path := filepath.Join(t.TempDir(), "catalog.json")
		So(os.WriteFile(path, []byte(`[{"title":"Wilco","venue":"The Eastern","date":"2026-11-02T20:00:00Z","performers":["Wilco"]}]`), 0o600), ShouldBeNil)

		events, err := source.LoadCatalog(path)
		So(err, ShouldBeNil)
		So(events, ShouldHaveLength, 1)
		So(events[0].Date.IsParsed(), ShouldBeTrue)
		So(events[0].Venue, ShouldEqual, "The Eastern")

		_, err = source.LoadCatalog(filepath.Join(t.TempDir(), "missing.json"))
		So(err, ShouldNotBeNil)
	})
}

type failingSource struct {
	calls int
	err   error
	delay time.Duration
}

func (f *failingSource) Name() string { return "flaky" }

func (f *failingSource) Fetch(ctx context.Context, _ source.Query) ([]model.CatalogEvent, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return []model.CatalogEvent{{Title: "ok"}}, nil
}

func TestGuard(t *testing.T) {
	Convey("Given a guarded source", t, func() {
		Convey("When the source succeeds", func() {
			g := source.NewGuard(&failingSource{})
			events, err := g.Fetch(context.Background(), source.Query{})
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 1)
			So(g.Name(), ShouldEqual, "flaky")
		})

		Convey("When the source fails", func() {
			boom := errors.New("connection reset")
			g := source.NewGuard(&failingSource{err: boom})
			_, err := g.Fetch(context.Background(), source.Query{})

			Convey("Then the error is a provider error", func() {
				So(errors.Is(err, source.ErrProvider), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})

		Convey("When the source is slower than the call timeout", func() {
			g := source.NewGuard(&failingSource{delay: time.Second}, source.WithCallTimeout(10*time.Millisecond))
			_, err := g.Fetch(context.Background(), source.Query{})

			So(errors.Is(err, source.ErrProvider), ShouldBeTrue)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})

		Convey("When server errors reach the breaker threshold", func() {
			inner := &failingSource{err: &httpclient.APIError{StatusCode: http.StatusServiceUnavailable}}
			g := source.NewGuard(inner, source.WithBreakerThreshold(3), source.WithBreakerOpenTimeout(time.Hour))
			for i := 0; i < 3; i++ {
				_, _ = g.Fetch(context.Background(), source.Query{})
			}
			_, err := g.Fetch(context.Background(), source.Query{})

			Convey("Then calls are rejected without reaching the source", func() {
				So(g.State(), ShouldEqual, gobreaker.StateOpen)
				So(inner.calls, ShouldEqual, 3)
				So(errors.Is(err, source.ErrProvider), ShouldBeTrue)
				So(errors.Is(err, gobreaker.ErrOpenState), ShouldBeTrue)
			})
		})

		Convey("When every call fails for artist-level reasons", func() {
			notFound := &failingSource{err: &httpclient.APIError{StatusCode: http.StatusNotFound}}
			undecodable := &failingSource{err: errors.New("decode response: unexpected end of JSON input")}
			guards := []*source.Guard{
				source.NewGuard(notFound, source.WithBreakerThreshold(3), source.WithBreakerOpenTimeout(time.Hour)),
				source.NewGuard(undecodable, source.WithBreakerThreshold(3), source.WithBreakerOpenTimeout(time.Hour)),
			}
			var errs []error
			for _, g := range guards {
				for i := 0; i < 6; i++ {
					_, err := g.Fetch(context.Background(), source.Query{})
					errs = append(errs, err)
				}
			}

			Convey("Then the breaker stays closed and every call reaches the source", func() {
				So(guards[0].State(), ShouldEqual, gobreaker.StateClosed)
				So(guards[1].State(), ShouldEqual, gobreaker.StateClosed)
				So(notFound.calls, ShouldEqual, 6)
				So(undecodable.calls, ShouldEqual, 6)
				for _, err := range errs {
					So(errors.Is(err, source.ErrProvider), ShouldBeTrue)
					So(errors.Is(err, gobreaker.ErrOpenState), ShouldBeFalse)
				}
			})
		})

		Convey("When transport errors and timeouts pile up", func() {
			refused := &failingSource{err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}
			g := source.NewGuard(refused, source.WithBreakerThreshold(3), source.WithBreakerOpenTimeout(time.Hour))
			for i := 0; i < 3; i++ {
				_, _ = g.Fetch(context.Background(), source.Query{})
			}
			slow := &failingSource{delay: time.Second}
			timed := source.NewGuard(slow, source.WithCallTimeout(5*time.Millisecond),
				source.WithBreakerThreshold(2), source.WithBreakerOpenTimeout(time.Hour))
			for i := 0; i < 2; i++ {
				_, _ = timed.Fetch(context.Background(), source.Query{})
			}

			Convey("Then both breakers open", func() {
				So(g.State(), ShouldEqual, gobreaker.StateOpen)
				So(timed.State(), ShouldEqual, gobreaker.StateOpen)
			})
		})
	})
}
