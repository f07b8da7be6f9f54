package dates_test

import (
	"testing"
	"time"

	"github.com/okian/gigradar/internal/domain/dates"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given provider date strings", t, func() {
		want := time.Date(2026, 11, 15, 20, 0, 0, 0, time.UTC)

		Convey("When the string is ISO-8601 with or without an offset", func() {
			for _, raw := range []string{
				"2026-11-15T20:00:00Z",
				"2026-11-15T20:00:00+00:00",
				"2026-11-15T15:00:00-05:00",
				"2026-11-15T20:00:00.000Z",
				"2026-11-15T15:00:00-0500",
				"2026-11-15T20:00:00",
			} {
				d := dates.Parse(raw)
				tm, ok := d.Time()
				So(ok, ShouldBeTrue)
				So(tm.Equal(want), ShouldBeTrue)
				So(d.Raw(), ShouldEqual, raw)
			}
		})

		Convey("When the string uses the space separated or date-only forms", func() {
			tm, ok := dates.Parse("2026-11-15 20:00:00").Time()
			So(ok, ShouldBeTrue)
			So(tm.Equal(want), ShouldBeTrue)

			tm, ok = dates.Parse("2026-11-15").Time()
			So(ok, ShouldBeTrue)
			So(tm.Equal(time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
		})

		Convey("When the string is the RFC-2822-like provider format", func() {
			tm, ok := dates.Parse("Sun, 15 Nov 2026 20:00:00 +0000").Time()
			So(ok, ShouldBeTrue)
			So(tm.Equal(want), ShouldBeTrue)
		})

		Convey("When the string is the human readable form", func() {
			tm, ok := dates.Parse("November 15, 2026 at 08:00 PM").Time()
			So(ok, ShouldBeTrue)
			So(tm.Equal(want), ShouldBeTrue)
		})

		Convey("When the string is empty or garbage", func() {
			for _, raw := range []string{"", "   ", "next friday", "2026-13-45"} {
				d := dates.Parse(raw)
				So(d.IsParsed(), ShouldBeFalse)
				So(d.String(), ShouldEqual, raw)
			}
		})
	})
}

func TestVariants(t *testing.T) {
	Convey("Given explicitly constructed variants", t, func() {
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		So(dates.Parsed("x", at).IsParsed(), ShouldBeTrue)
		So(dates.Unparsed("x").IsParsed(), ShouldBeFalse)
		tm, _ := dates.Parsed("x", at).Time()
		So(tm, ShouldEqual, at)
	})
}

func TestValidatorIsFuture(t *testing.T) {
	Convey("Given a validator with a fixed clock", t, func() {
		now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
		v := dates.NewValidator(dates.WithClock(func() time.Time { return now }))
		horizon := 90

		Convey("Then an event dated now is included", func() {
			So(v.IsFuture(now.Format(time.RFC3339), horizon), ShouldBeTrue)
		})

		Convey("Then an event dated horizon+1 days ahead is excluded", func() {
			So(v.IsFuture(now.AddDate(0, 0, horizon+1).Format(time.RFC3339), horizon), ShouldBeFalse)
		})

		Convey("Then the last second of the horizon day is included", func() {
			edge := time.Date(2026, 10, 17, 23, 59, 59, 0, time.UTC).AddDate(0, 0, horizon)
			So(v.IsFuture(edge.Format(time.RFC3339), horizon), ShouldBeTrue)
		})

		Convey("Then past and unparseable dates are excluded", func() {
			So(v.IsFuture(now.Add(-time.Minute).Format(time.RFC3339), horizon), ShouldBeFalse)
			So(v.IsFuture("soon", horizon), ShouldBeFalse)
			So(v.IsFuture("", horizon), ShouldBeFalse)
		})
	})
}

func TestValidatorDisplayAndDays(t *testing.T) {
	Convey("Given a validator with a fixed clock", t, func() {
		now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
		v := dates.NewValidator(dates.WithClock(func() time.Time { return now }))

		Convey("When formatting for display", func() {
			So(v.FormatForDisplay(""), ShouldEqual, "TBD")
			So(v.FormatForDisplay("whenever"), ShouldEqual, "whenever")
			at := time.Date(2026, 11, 15, 20, 0, 0, 0, time.UTC)
			So(v.FormatForDisplay("2026-11-15T20:00:00Z"), ShouldEqual, at.Local().Format(dates.DisplayLayout))
		})

		Convey("When counting days until an event", func() {
			days, ok := v.DaysUntil("2026-10-24T12:00:00Z")
			So(ok, ShouldBeTrue)
			So(days, ShouldEqual, 7)

			days, ok = v.DaysUntil("2026-10-16T11:00:00Z")
			So(ok, ShouldBeTrue)
			So(days, ShouldEqual, -2)

			_, ok = v.DaysUntil("nope")
			So(ok, ShouldBeFalse)
		})
	})
}
