package reconcile

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// US state abbreviation <-> full name mapping, DC included. Both directions
// are needed so "Virginia" and "VA" produce the same location key.
var stateAbbrevToName = map[string]string{
	"al": "alabama", "ak": "alaska", "az": "arizona", "ar": "arkansas",
	"ca": "california", "co": "colorado", "ct": "connecticut", "de": "delaware",
	"fl": "florida", "ga": "georgia", "hi": "hawaii", "id": "idaho",
	"il": "illinois", "in": "indiana", "ia": "iowa", "ks": "kansas",
	"ky": "kentucky", "la": "louisiana", "me": "maine", "md": "maryland",
	"ma": "massachusetts", "mi": "michigan", "mn": "minnesota", "ms": "mississippi",
	"mo": "missouri", "mt": "montana", "ne": "nebraska", "nv": "nevada",
	"nh": "new hampshire", "nj": "new jersey", "nm": "new mexico", "ny": "new york",
	"nc": "north carolina", "nd": "north dakota", "oh": "ohio", "ok": "oklahoma",
	"or": "oregon", "pa": "pennsylvania", "ri": "rhode island", "sc": "south carolina",
	"sd": "south dakota", "tn": "tennessee", "tx": "texas", "ut": "utah",
	"vt": "vermont", "va": "virginia", "wa": "washington", "wv": "west virginia",
	"wi": "wisconsin", "wy": "wyoming", "dc": "district of columbia",
}

var stateNameToAbbrev = func() map[string]string {
	m := make(map[string]string, len(stateAbbrevToName))
	for abbrev, name := range stateAbbrevToName {
		m[name] = abbrev
	}
	return m
}()

// NormalizeState canonicalizes a state to its lowercase two-letter
// abbreviation. Unknown values come back lowercased and trimmed so leads
// from outside the table still compare consistently with each other.
func NormalizeState(state string) string {
	s := strings.ToLower(strings.TrimSpace(state))
	if _, ok := stateAbbrevToName[s]; ok {
		return s
	}
	if abbrev, ok := stateNameToAbbrev[s]; ok {
		return abbrev
	}
	return s
}

var (
	// Generic words that carry no matching signal for facility names.
	stopWords = regexp.MustCompile(`\b(llc|inc|the|gym|fitness|studio|center|centre)\b`)

	// Location codes booking platforms embed in names, e.g. "#0196",
	// "EM-VA-20005", "DC.MD.VA".
	hashCode     = regexp.MustCompile(`#\w+`)
	locationCode = regexp.MustCompile(`(?i)\b[a-z]{2}[.-][a-z]{2}[.-\w]*`)

	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// asciiFold strips combining marks after NFD decomposition so that
// "Décathlon" and "Decathlon" normalize identically.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName reduces a facility name to its comparison form: folded to
// ASCII, lowercased, stop-words and location codes removed, punctuation
// stripped, whitespace collapsed. Used only for duplicate matching, never
// for display.
func NormalizeName(name string) string {
	if folded, _, err := transform.String(asciiFold, name); err == nil {
		name = folded
	}
	name = strings.ToLower(strings.TrimSpace(name))
	name = stopWords.ReplaceAllString(name, "")
	name = hashCode.ReplaceAllString(name, "")
	name = locationCode.ReplaceAllString(name, "")
	name = nonAlphanumeric.ReplaceAllString(name, "")
	name = whitespace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
