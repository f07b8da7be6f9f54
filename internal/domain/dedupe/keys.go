package dedupe

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/gigradar/internal/domain/similarity"
)

const (
	// EntryPrefix marks calendar entries created by gigradar.
	EntryPrefix = "🎵 "

	maxNameRunes        = 100
	maxDescriptionRunes = 1000
	unknownLocation     = "Unknown"
)

// titleSeparators end the artist part of an entry name.
var titleSeparators = []string{" at ", " @ ", " - "} //nolint:gochecknoglobals // fixed table

// CanonicalName is the entry name created for an event title.
func CanonicalName(title string) string {
	return truncate(EntryPrefix+title, maxNameRunes)
}

// NormalizeTitle reduces an entry name to an approximate artist identifier:
// prefix dropped, lower-cased, cut at the first venue or date separator and
// whitespace collapsed.
func NormalizeTitle(name string) string {
	s := strings.TrimSpace(strings.TrimLeft(name, "🎵"))
	s = strings.ToLower(s)
	for _, sep := range titleSeparators {
		if i := strings.Index(s, sep); i >= 0 {
			s = s[:i]
			break
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// ExactKey is the literal identity of an event within a run.
func ExactKey(title, rawDate, venue string) string {
	return title + "|" + rawDate + "|" + venue
}

// CanonicalKey is the identity of a stored entry across runs.
func CanonicalKey(name string, start time.Time, location string) string {
	if location == "" {
		location = unknownLocation
	}
	return name + "|" + start.UTC().Format(time.RFC3339) + "|" + location
}

// fuzzyTitle is the form compared by the fuzzy duplicate check. Names made
// only of noise words fall back to their normalized title.
func fuzzyTitle(name string) string {
	n := NormalizeTitle(name)
	if c := similarity.Clean(n); c != "" {
		return c
	}
	return n
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-3]) + "..."
}
