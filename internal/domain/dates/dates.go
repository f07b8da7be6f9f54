// Package dates normalizes the date strings returned by event providers.
//
// Provider payloads carry dates as free-form strings. Date is the tagged form
// used everywhere downstream: either Unparsed (raw only) or Parsed (raw plus a
// UTC-comparable instant). Nothing in this package returns an error; input
// that matches no known layout simply stays Unparsed.
package dates

import (
	"strings"
	"time"
)

// DisplayLayout is the human-readable layout used by FormatForDisplay.
const DisplayLayout = "January 02, 2006 at 03:04 PM"

// layouts are tried in order. Layouts without a zone are read as UTC.
var layouts = []string{ //nolint:gochecknoglobals // fixed parse table
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006 at 03:04 PM",
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// Date is either Unparsed(raw) or Parsed(raw, time).
type Date struct {
	raw    string
	t      time.Time
	parsed bool
}

// Parse classifies raw into a Date.
func Parse(raw string) Date {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{raw: raw}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{raw: raw, t: t, parsed: true}
		}
	}
	return Date{raw: raw}
}

// Unparsed builds a Date that carries only the raw string.
func Unparsed(raw string) Date { return Date{raw: raw} }

// Parsed builds a Date from an already-known instant.
func Parsed(raw string, t time.Time) Date { return Date{raw: raw, t: t, parsed: true} }

// Raw returns the provider string exactly as received.
func (d Date) Raw() string { return d.raw }

// Time returns the instant and whether the Date is Parsed.
func (d Date) Time() (time.Time, bool) { return d.t, d.parsed }

// IsParsed reports whether the Date is the Parsed variant.
func (d Date) IsParsed() bool { return d.parsed }

// String implements fmt.Stringer.
func (d Date) String() string { return d.raw }

// Normalizer is the date service consumed by matching and deduplication.
type Normalizer interface {
	Parse(raw string) (time.Time, bool)
	IsFuture(raw string, horizonDays int) bool
	FormatForDisplay(raw string) string
	DaysUntil(raw string) (int, bool)
}

// Validator implements Normalizer against a clock.
type Validator struct {
	now func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// NewValidator creates a Validator using the wall clock unless overridden.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Parse returns the instant for raw, or false when no layout matches.
func (v *Validator) Parse(raw string) (time.Time, bool) {
	return Parse(raw).Time()
}

// IsFuture reports whether raw falls between now and the end of the UTC day
// horizonDays from today, inclusive on both ends.
func (v *Validator) IsFuture(raw string, horizonDays int) bool {
	t, ok := v.Parse(raw)
	if !ok {
		return false
	}
	now := v.now().UTC()
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)
	cutoff := endOfToday.AddDate(0, 0, horizonDays)
	return !t.Before(now) && !t.After(cutoff)
}

// FormatForDisplay renders raw for humans: TBD when empty, raw when unparseable.
func (v *Validator) FormatForDisplay(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "TBD"
	}
	t, ok := v.Parse(raw)
	if !ok {
		return raw
	}
	return t.Local().Format(DisplayLayout)
}

// DaysUntil returns whole days from now until raw, truncated toward negative
// infinity for past dates.
func (v *Validator) DaysUntil(raw string) (int, bool) {
	t, ok := v.Parse(raw)
	if !ok {
		return 0, false
	}
	delta := t.Sub(v.now())
	days := int(delta / (24 * time.Hour))
	if delta < 0 && delta%(24*time.Hour) != 0 {
		days--
	}
	return days, true
}
