// Package resolve advances bets through the resolution lifecycle:
// PENDING to exactly one of HIT, MISS, PUSH or VOID, decided by the side
// the member took against the observed outcome.
package resolve

import (
	"fmt"

	"github.com/bozoleague/propline/internal/domain/model"
)

// Transition maps an oracle outcome onto a bet's next status.
//
// Terminal bets are returned unchanged with changed=false so re-running
// a pass over an already-resolved cycle is a no-op. The bet's category
// never changes the mapping; it only affects aggregation buckets.
func Transition(bet model.Bet, outcome model.Outcome) (status model.Status, changed bool, err error) {
	if bet.Status.Terminal() {
		return bet.Status, false, nil
	}

	switch outcome {
	case model.OutcomePush:
		return model.StatusPush, true, nil
	case model.OutcomeVoid:
		return model.StatusVoid, true, nil
	case model.OutcomeOver, model.OutcomeUnder:
		if sideMatches(bet.Direction, outcome) {
			return model.StatusHit, true, nil
		}
		return model.StatusMiss, true, nil
	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
}

func sideMatches(dir model.Direction, outcome model.Outcome) bool {
	switch dir {
	case model.DirectionOver:
		return outcome == model.OutcomeOver
	case model.DirectionUnder:
		return outcome == model.OutcomeUnder
	default:
		// Unset direction defaults to over, the common case for props.
		return outcome == model.OutcomeOver
	}
}

// ItemError records one bet's failure during a resolution pass.
type ItemError struct {
	BetID string
	Err   error
}

// Report aggregates the result of a batch resolution pass. One bet's
// failure never aborts the pass; callers retry only the failed subset.
type Report struct {
	Resolved int         // bets that reached a terminal status this pass
	Pending  int         // bets left PENDING (oracle unresolved or unmatched)
	Skipped  int         // bets that were already terminal
	Failures []ItemError // per-bet failures
}

// Errored reports whether any item failed.
func (r Report) Errored() bool {
	return len(r.Failures) > 0
}

// Add folds another report into r (used when collecting from workers).
func (r *Report) Add(other Report) {
	r.Resolved += other.Resolved
	r.Pending += other.Pending
	r.Skipped += other.Skipped
	r.Failures = append(r.Failures, other.Failures...)
}
