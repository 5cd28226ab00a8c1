// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the resolution lifecycle state of a bet.
type Status string

// Bet lifecycle states. PENDING is the only non-terminal state.
const (
	StatusPending Status = "PENDING"
	StatusHit     Status = "HIT"
	StatusMiss    Status = "MISS"
	StatusPush    Status = "PUSH"
	StatusVoid    Status = "VOID"
)

// ParseStatus converts a stored string into a Status, rejecting unknown
// values so bad records never enter the engine silently.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusHit:
		return StatusHit, nil
	case StatusMiss:
		return StatusMiss, nil
	case StatusPush:
		return StatusPush, nil
	case StatusVoid:
		return StatusVoid, nil
	default:
		return "", fmt.Errorf("unknown bet status: %q", s)
	}
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusHit || s == StatusMiss || s == StatusPush || s == StatusVoid
}

// Category classifies a submission by variance: RISK ("bozo") picks are
// long-odds swings, SAFE ("favorite") picks are chalk. The category only
// affects how the aggregator buckets results, never transition logic.
type Category string

const (
	CategoryRisk Category = "RISK"
	CategorySafe Category = "SAFE"
)

// ParseCategory converts a stored string into a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryRisk:
		return CategoryRisk, nil
	case CategorySafe:
		return CategorySafe, nil
	default:
		return "", fmt.Errorf("unknown bet category: %q", s)
	}
}

// Direction is the side of the line a member took.
type Direction string

const (
	DirectionOver  Direction = "over"
	DirectionUnder Direction = "under"
)

// ParseDirection converts a submitted string into a Direction. The
// empty string is allowed and defaults to over at resolution time.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case DirectionOver:
		return DirectionOver, nil
	case DirectionUnder:
		return DirectionUnder, nil
	default:
		return "", fmt.Errorf("unknown bet direction: %q", s)
	}
}

// Outcome is what the oracle observed for a resolved line.
type Outcome string

const (
	OutcomeOver  Outcome = "over"
	OutcomeUnder Outcome = "under"
	OutcomePush  Outcome = "push"
	OutcomeVoid  Outcome = "void"
)

// ParseOutcome converts a reported string into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(strings.ToLower(strings.TrimSpace(s))) {
	case OutcomeOver:
		return OutcomeOver, nil
	case OutcomeUnder:
		return OutcomeUnder, nil
	case OutcomePush:
		return OutcomePush, nil
	case OutcomeVoid:
		return OutcomeVoid, nil
	default:
		return "", fmt.Errorf("unknown line outcome: %q", s)
	}
}

// Cycle identifies one scoring period: a week of a season.
type Cycle struct {
	Season int `json:"season"`
	Week   int `json:"week"`
}

// Key returns the canonical cycle key, e.g. "2025-w14".
func (c Cycle) Key() string {
	return fmt.Sprintf("%d-w%d", c.Season, c.Week)
}

// ParseCycleKey parses a key produced by Cycle.Key.
func ParseCycleKey(key string) (Cycle, error) {
	var c Cycle
	if _, err := fmt.Sscanf(strings.TrimSpace(key), "%d-w%d", &c.Season, &c.Week); err != nil {
		return Cycle{}, fmt.Errorf("invalid cycle key %q: %w", key, err)
	}
	return c, nil
}

// Line is a priced betting proposition published for one cycle.
// Lines are immutable once published; a price change is a new Line
// with the same SourceID superseding the old one.
type Line struct {
	SourceID  string    // stable external identifier
	Subject   string    // player or team the prop is about
	Category  string    // bet type, e.g. "passing yards", "moneyline"
	Threshold float64   // numeric line, 0 for binary props
	Price     int       // American odds: negative favorite, positive underdog
	ValidFrom time.Time // cycle window start
	ValidTo   time.Time // cycle window end
	Cycle     Cycle
}

// Bet is a member's submission, possibly reconciled against a Line.
type Bet struct {
	ID         string
	MemberID   string
	CohortID   string
	Cycle      Cycle
	RawText    string
	LineID     *string // nil when no catalog match was found
	Price      *int    // snapshotted at submission; nil when unmatched
	Direction  Direction
	Category   Category
	Status     Status
	Confidence float64 // 0..1, how the match was obtained
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// Matched reports whether the bet was reconciled to a catalog line.
func (b Bet) Matched() bool {
	return b.LineID != nil
}

// Policy is a cohort's inclusive signed-odds price window. A bet's
// snapshotted price must fall within [MinPrice, MaxPrice] at submission.
type Policy struct {
	MinPrice int `json:"min_price"`
	MaxPrice int `json:"max_price"`
}

// Allows reports whether price falls within the policy window.
func (p Policy) Allows(price int) bool {
	return price >= p.MinPrice && price <= p.MaxPrice
}

// StandingEntry carries a member's aggregate counters. MissRate is always
// derived, never stored, so the ratio cannot drift from the counters.
type StandingEntry struct {
	MemberID   string `json:"member_id"`
	CohortID   string `json:"cohort_id"`
	Hits       int    `json:"hits"`
	Misses     int    `json:"misses"`
	Pushes     int    `json:"pushes"`
	Voids      int    `json:"voids"`
	RiskMisses int    `json:"risk_misses"`
	SafeMisses int    `json:"safe_misses"`
}

// MissRate returns misses / (misses + hits), or 0 when unresolved.
func (e StandingEntry) MissRate() float64 {
	total := e.Misses + e.Hits
	if total == 0 {
		return 0
	}
	return float64(e.Misses) / float64(total)
}
