// Package match reconciles free-text bet descriptions against the line
// catalog using a tiered, confidence-ranked algorithm.
package match

import (
	"context"
	"fmt"
	"strings"

	"github.com/bozoleague/propline/internal/domain/model"
	"github.com/bozoleague/propline/internal/domain/normalize"
)

// Tier confidences. The first tier whose scan produces any candidate
// wins; tiers are ordered strongest first.
const (
	confidenceExact     = 1.0 // full text equals subject+category
	confidenceWholeGame = 1.0 // team + whole-game category
	confidenceSubjCat   = 0.9 // subject (sans team) + category
	confidenceSubject   = 0.8 // subject alone, category unspecified
	confidenceCategory  = 0.7 // category alone, subject unspecified
	confidenceFuzzy     = 0.5 // substring overlap on subject

	// acceptFloor is the minimum confidence returned as a match.
	acceptFloor = 0.5

	maxSuggestions = 5
)

// LineSource is the read-only catalog view the engine consumes.
type LineSource interface {
	Lines(ctx context.Context, cycle model.Cycle) ([]model.Line, error)
}

// Result is the outcome of one match attempt. Absence of a match is a
// normal result, not an error.
type Result struct {
	Found       bool
	Line        model.Line
	Confidence  float64
	Suggestions []string
}

// Engine matches free text against catalog lines. It holds no state of
// its own and is safe for concurrent use; it may be called on every
// keystroke-equivalent event without internal throttling.
type Engine struct {
	source LineSource
}

// NewEngine creates a matching engine over the given line source.
func NewEngine(source LineSource) *Engine {
	return &Engine{source: source}
}

// candidate pairs a scanned entry with its precomputed normal forms.
type candidate struct {
	line      model.Line
	canonical string // normalized subject + category
	subject   string // normalized subject
	category  string // normalized category
}

// Match resolves rawText against the catalog for cycle. A failed catalog
// fetch is reported as an error wrapping ErrCatalogUnavailable; every
// other input yields a Result.
func (e *Engine) Match(ctx context.Context, cycle model.Cycle, rawText string) (Result, error) {
	lines, err := e.source.Lines(ctx, cycle)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	normText := normalize.TrimLineValue(normalize.Normalize(rawText))
	subject, category := normalize.Extract(rawText)

	cands := make([]candidate, len(lines))
	for i, l := range lines {
		cands[i] = candidate{
			line:      l,
			canonical: normalize.Normalize(l.Subject + " " + l.Category),
			subject:   normalize.Normalize(l.Subject),
			category:  normalize.Normalize(l.Category),
		}
	}

	type tier struct {
		confidence float64
		matches    func(c candidate) bool
	}

	tiers := []tier{
		// Tier 1: exact equality of the whole normalized text.
		{confidenceExact, func(c candidate) bool {
			return normText != "" && normText == c.canonical
		}},
		// Tier 1b: whole-game category plus a shared team.
		{confidenceWholeGame, func(c candidate) bool {
			return subject != "" && category != "" && normalize.WholeGame(category) &&
				categoriesMatch(category, c.category) && teamsMatch(subject, c.subject)
		}},
		// Tier 2: subject (minus trailing team token) plus category.
		{confidenceSubjCat, func(c candidate) bool {
			return subject != "" && category != "" &&
				categoriesMatch(category, c.category) && subjectsMatchSansTeam(subject, c.subject)
		}},
		// Tier 2b: subject alone, no category extracted.
		{confidenceSubject, func(c candidate) bool {
			return subject != "" && category == "" && subjectsMatchSansTeam(subject, c.subject)
		}},
		// Tier 3: category alone, no subject extracted.
		{confidenceCategory, func(c candidate) bool {
			return subject == "" && category != "" && categoriesMatch(category, c.category)
		}},
		// Tier 4: substring overlap either direction on the subject.
		{confidenceFuzzy, func(c candidate) bool {
			return subject != "" && c.subject != "" &&
				(strings.Contains(c.subject, subject) || strings.Contains(subject, c.subject))
		}},
	}

	for _, t := range tiers {
		if t.confidence < acceptFloor {
			continue
		}
		// First candidate in catalog order wins the tie-break.
		for _, c := range cands {
			if t.matches(c) {
				return Result{Found: true, Line: c.line, Confidence: t.confidence}, nil
			}
		}
	}

	return Result{Suggestions: suggestions(subject, normText)}, nil
}

// suggestions builds up to maxSuggestions subject x category combinations
// for the "no match" path.
func suggestions(subject, normText string) []string {
	base := subject
	if base == "" {
		base = normText
	}
	if base == "" {
		return nil
	}

	seen := make(map[string]bool, maxSuggestions)
	out := make([]string, 0, maxSuggestions)
	for _, cat := range normalize.Categories {
		s := base + " " + cat
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// categoriesMatch compares a vocabulary category against an entry's
// category by containment in either direction.
func categoriesMatch(extracted, entry string) bool {
	if extracted == "" || entry == "" {
		return false
	}
	return strings.Contains(entry, extracted) || strings.Contains(extracted, entry)
}

// subjectsMatchSansTeam compares two normalized subjects, tolerating a
// trailing team token on either side ("josh allen bills" vs "josh allen").
func subjectsMatchSansTeam(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	at, bt := trimTeamToken(a), trimTeamToken(b)
	return at == b || a == bt || (at == bt && at != "")
}

// trimTeamToken drops the trailing team token from a "first last team"
// subject. Shorter subjects are returned empty so two-token names never
// collapse into bare first names.
func trimTeamToken(s string) string {
	tokens := strings.Fields(s)
	if len(tokens) < 3 {
		return ""
	}
	return strings.Join(tokens[:len(tokens)-1], " ")
}

// teamsMatch compares team subjects after club-prefix stripping, allowing
// containment so "chiefs" matches "kansas city chiefs". A matchup subject
// ("chiefs at bills") matches when either team does.
func teamsMatch(a, b string) bool {
	if home, away, ok := normalize.SplitTeams(a); ok {
		return teamsMatch(home, b) || teamsMatch(away, b)
	}
	if home, away, ok := normalize.SplitTeams(b); ok {
		return teamsMatch(a, home) || teamsMatch(a, away)
	}
	a = normalize.StripClubPrefix(a)
	b = normalize.StripClubPrefix(b)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(b, a) || strings.Contains(a, b)
}
