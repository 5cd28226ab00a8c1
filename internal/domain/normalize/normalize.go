// Package normalize canonicalizes free-text bet descriptions and extracts
// a best-effort (subject, category) pair. Everything here is pure: no
// state, no I/O, and no failures — unparseable input yields empty results.
package normalize

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSubjectTokens caps the subject candidate when no category is found.
const maxSubjectTokens = 4

// Categories is the fixed vocabulary of recognized bet types, in match
// priority order. Matching is by substring containment, not equality.
var Categories = []string{
	"passing yards",
	"rushing yards",
	"receiving yards",
	"receptions",
	"touchdowns",
	"interceptions",
	"moneyline",
	"spread",
	"total",
}

// wholeGameCategories are team-level propositions rather than player props.
var wholeGameCategories = map[string]bool{
	"moneyline": true,
	"spread":    true,
	"total":     true,
}

// WholeGame reports whether category is a team-level bet type.
func WholeGame(category string) bool {
	return wholeGameCategories[strings.ToLower(strings.TrimSpace(category))]
}

// foldTransformer strips combining marks so "José" and "Jose" compare equal.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldDiacritics(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize lowercases text, folds diacritics, strips punctuation except
// '.' and '-' (numeric lines use decimals), and collapses whitespace.
// Standalone dash tokens used as separators are dropped.
func Normalize(text string) string {
	s := strings.ToLower(foldDiacritics(text))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, f := range fields {
		if strings.Trim(f, ".-") == "" {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// Extract returns a best-effort (subject, category) pair from free text.
// The category is reported in its canonical vocabulary form; both results
// are empty strings when nothing was recognized.
func Extract(text string) (subject, category string) {
	base := TrimLineValue(Normalize(text))
	if base == "" {
		return "", ""
	}

	// Direct containment of a vocabulary phrase wins; earliest occurrence
	// first, longer phrase on a tie so "passing yards" beats "yards".
	bestIdx, bestCat := -1, ""
	for _, cat := range Categories {
		idx := strings.Index(base, cat)
		if idx < 0 {
			continue
		}
		if bestIdx == -1 || idx < bestIdx || (idx == bestIdx && len(cat) > len(bestCat)) {
			bestIdx, bestCat = idx, cat
		}
	}
	if bestIdx >= 0 {
		return trimSubject(base[:bestIdx]), bestCat
	}

	// Otherwise look for a trailing fragment of a vocabulary phrase,
	// e.g. "yards" inside "passing yards".
	tokens := strings.Fields(base)
	for i := 1; i < len(tokens); i++ {
		tail := strings.Join(tokens[i:], " ")
		for _, cat := range Categories {
			if strings.Contains(cat, tail) {
				return trimSubject(strings.Join(tokens[:i], " ")), cat
			}
		}
	}

	// No category at all: first tokens become the subject candidate.
	if len(tokens) > maxSubjectTokens {
		tokens = tokens[:maxSubjectTokens]
	}
	return trimSubject(strings.Join(tokens, " ")), ""
}

func trimSubject(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "-"))
}

// LineValue extracts a trailing numeric line from text, e.g. 250.5 from
// "josh allen passing yards 250.5". Decimal parsing keeps half-point
// lines exact.
func LineValue(text string) (float64, bool) {
	fields := strings.Fields(Normalize(text))
	if len(fields) == 0 {
		return 0, false
	}
	last := strings.TrimSuffix(fields[len(fields)-1], ".")
	d, err := decimal.NewFromString(last)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// TrimLineValue removes trailing numeric tokens from already-normalized
// text, leaving only the subject/category words.
func TrimLineValue(normalized string) string {
	fields := strings.Fields(normalized)
	for len(fields) > 0 {
		last := strings.TrimSuffix(fields[len(fields)-1], ".")
		if _, err := decimal.NewFromString(last); err != nil {
			break
		}
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// teamNamePrefixes are stripped so "FC Dallas" and "Dallas" compare equal.
var teamNamePrefixes = []string{
	"f.c. ", "fc ", "s.c. ", "sc ", "a.c. ", "ac ", "c.f. ", "cf ",
	"a.s. ", "as ", "s.s.c. ", "ssc ", "u.d. ", "ud ", "r.c. ", "rc ",
}

// StripClubPrefix removes a leading club designation from a team name.
func StripClubPrefix(team string) string {
	s := strings.ToLower(strings.TrimSpace(team))
	for _, p := range teamNamePrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// SplitTeams extracts the two team names from a matchup string.
// Supported separators: " vs ", " vs. ", " at ", " @ ".
func SplitTeams(name string) (home, away string, ok bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", false
	}
	for _, sep := range []string{" vs ", " vs. ", " at ", " @ "} {
		parts := strings.SplitN(strings.ToLower(name), sep, 2)
		if len(parts) != 2 {
			continue
		}
		home = strings.TrimSpace(parts[0])
		away = strings.TrimSpace(parts[1])
		if home == "" || away == "" {
			return "", "", false
		}
		return home, away, true
	}
	return "", "", false
}
