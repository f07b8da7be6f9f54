package matching_test

import (
	"testing"
	"time"

	"github.com/okian/gigradar/internal/domain/dates"
	"github.com/okian/gigradar/internal/domain/matching"
	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/internal/domain/similarity"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // fixed test clock

func newAggregator() *matching.Aggregator {
	v := dates.NewValidator(dates.WithClock(func() time.Time { return now }))
	return matching.New(similarity.New(), matching.WithDates(v))
}

func event(title string, at time.Time, performers ...string) model.CatalogEvent {
	raw := at.Format(time.RFC3339)
	return model.CatalogEvent{
		Title:      title,
		Venue:      "The Tabernacle",
		Date:       dates.Parse(raw),
		Performers: performers,
	}
}

func profile(user string, names ...string) model.ListenerProfile {
	artists := make([]model.Artist, len(names))
	for i, n := range names {
		artists[i] = model.Artist{Name: n}
	}
	return model.NewListenerProfile(user, "1month", artists)
}

func TestFindMatches(t *testing.T) {
	Convey("Given a listener who plays Radiohead and Interpol", t, func() {
		agg := newAggregator()
		listeners := []model.ListenerProfile{profile("alice", "Radiohead", "Interpol")}
		nextWeek := now.AddDate(0, 0, 7)

		Convey("When one Radiohead event is listed", func() {
			matches := agg.FindMatches(listeners, []model.CatalogEvent{
				event("Radiohead World Tour", nextWeek, "Radiohead"),
			})

			Convey("Then exactly one match is produced with a perfect score", func() {
				So(matches["alice"], ShouldHaveLength, 1)
				So(matches["alice"][0].Artist, ShouldEqual, "Radiohead")
				So(matches["alice"][0].Score, ShouldEqual, 1.0)
				So(matches["alice"][0].Event.Title, ShouldEqual, "Radiohead World Tour")
			})
		})

		Convey("When the same show is listed twice with different performer spellings", func() {
			matches := agg.FindMatches(listeners, []model.CatalogEvent{
				event("Interpol Live", nextWeek, "Interpol Band"),
				event("Interpol Live", nextWeek, "Interpol"),
			})

			Convey("Then the higher scoring match survives", func() {
				So(matches["alice"], ShouldHaveLength, 1)
				So(matches["alice"][0].Score, ShouldEqual, 1.0)
			})
		})

		Convey("When several events match with different scores", func() {
			matches := agg.FindMatches(listeners, []model.CatalogEvent{
				event("Interpol at Masquerade", nextWeek, "Interpol."),
				event("Radiohead World Tour", nextWeek.AddDate(0, 0, 1), "Radiohead"),
				event("Unrelated", nextWeek, "Nickelback"),
			})

			Convey("Then results are sorted by descending score and unrelated events dropped", func() {
				So(matches["alice"], ShouldHaveLength, 2)
				So(matches["alice"][0].Artist, ShouldEqual, "Radiohead")
				So(matches["alice"][1].Artist, ShouldEqual, "Interpol")
				So(matches["alice"][1].Score, ShouldBeLessThan, 1.0)
			})
		})

		Convey("When there are no events", func() {
			matches := agg.FindMatches(listeners, nil)

			Convey("Then the listener is present with no matches", func() {
				got, ok := matches["alice"]
				So(ok, ShouldBeTrue)
				So(got, ShouldBeEmpty)
			})
		})
	})
}

func TestMatchByTitle(t *testing.T) {
	Convey("Given events without performer lists", t, func() {
		agg := newAggregator()
		listeners := []model.ListenerProfile{profile("bob", "Interpol", "Phoebe Bridgers")}

		events := []model.CatalogEvent{
			event("Interpol", now.AddDate(0, 0, 3)),
			event("Phoebe Bridgers", now.AddDate(0, 0, -3)),
			event("Phoebe Bridgers", now.AddDate(0, 0, 200)),
			{Title: "Interpol", Date: dates.Parse("someday")},
		}

		matches := agg.MatchByTitle(events, listeners)

		Convey("Then only the future, in-horizon, parseable title match is kept", func() {
			So(matches["bob"], ShouldHaveLength, 1)
			So(matches["bob"][0].Artist, ShouldEqual, "Interpol")
			So(matches["bob"][0].Score, ShouldEqual, 1.0)
		})
	})
}
