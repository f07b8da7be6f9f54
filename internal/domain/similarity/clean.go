package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// noisePhrases are two-word sequences dropped as a unit.
var noisePhrases = [][2]string{{"best", "of"}, {"tribute", "to"}} //nolint:gochecknoglobals // fixed vocabulary

// noiseTokens are dropped from a name when they appear as whole words.
var noiseTokens = map[string]struct{}{ //nolint:gochecknoglobals // fixed vocabulary
	"band": {}, "group": {}, "ensemble": {}, "orchestra": {}, "quartet": {}, "trio": {},
	"feat": {}, "feat.": {}, "featuring": {}, "ft": {}, "ft.": {},
	"&": {}, "and": {}, "+": {},
	"the": {}, "a": {}, "an": {}, "of": {}, "in": {}, "on": {}, "at": {}, "for": {},
	"with": {}, "without": {}, "from": {}, "to": {}, "by": {},
	"vs": {}, "vs.": {}, "versus": {}, "presents": {},
	"music": {}, "songs": {}, "hits": {}, "greatest": {},
	"official": {}, "original": {}, "new": {}, "old": {}, "classic": {},
	"live": {}, "acoustic": {}, "electric": {}, "unplugged": {},
	"remix": {}, "remixes": {}, "cover": {}, "covers": {}, "tribute": {},
}

// Clean lower-cases name, folds diacritics, drops noise words and collapses
// whitespace. "The Beatles Band (Live)" becomes "beatles".
func Clean(name string) string {
	fields := strings.Fields(strings.ToLower(foldDiacritics(name)))
	kept := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		if i+1 < len(fields) && isPhrase(bare(tok), bare(fields[i+1])) {
			i++
			continue
		}
		word := bare(tok)
		if word == "" {
			continue
		}
		if _, noise := noiseTokens[word]; noise {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func bare(tok string) string { return strings.Trim(tok, "()[]:") }

func isPhrase(first, second string) bool {
	for _, p := range noisePhrases {
		if first == p[0] && second == p[1] {
			return true
		}
	}
	return false
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
