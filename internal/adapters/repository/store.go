// Package repository defines the persisted-state interfaces for bets,
// standings, policies and cohort membership, plus the in-memory and
// SQLite implementations.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bozoleague/propline/internal/domain/model"
)

// BetStore provides read/write access to submitted bets.
//
// Resolve is the store's atomicity boundary: the PENDING -> terminal
// transition is a per-bet compare-and-set, so a resolution pass over N
// bets is N independent updates and re-running a pass is a no-op for
// bets that already reached a terminal status.
type BetStore interface {
	// Create persists a new bet. normText is the canonical form of the
	// submission text, used to detect duplicate submissions; a repeat of
	// (member, cycle, normText) fails with ErrDuplicate.
	Create(ctx context.Context, bet model.Bet, normText string) error

	// Get returns a bet by id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.Bet, error)

	// FindSubmission returns the bet previously created for the given
	// submission key, or ErrNotFound.
	FindSubmission(ctx context.Context, memberID string, cycle model.Cycle, normText string) (model.Bet, error)

	// ListPending returns the cycle's PENDING bets in submission order.
	ListPending(ctx context.Context, cycle model.Cycle) ([]model.Bet, error)

	// ListByCycle returns all of the cycle's bets in submission order.
	ListByCycle(ctx context.Context, cycle model.Cycle) ([]model.Bet, error)

	// Resolve transitions a PENDING bet to the given terminal status.
	// It returns the stored bet and true when the transition happened,
	// or the stored bet and false when the bet was already terminal.
	// Non-terminal target statuses fail with ErrUnknownStatus.
	Resolve(ctx context.Context, id string, status model.Status, at time.Time) (model.Bet, bool, error)
}

// StandingStore accumulates per-member counters as bets resolve.
type StandingStore interface {
	// Apply folds one terminal transition into the member's counters.
	// Callers must invoke it exactly once per transition; the Resolve
	// compare-and-set above is the guard.
	Apply(ctx context.Context, memberID, cohortID string, category model.Category, status model.Status) error

	// Standings returns entries sorted by key, descending. An empty
	// cohortID selects all cohorts.
	Standings(ctx context.Context, cohortID string, sortBy SortKey) ([]model.StandingEntry, error)
}

// PolicyStore holds each cohort's price-range policy.
type PolicyStore interface {
	// Policy returns the cohort's policy, or ErrNoPolicy.
	Policy(ctx context.Context, cohortID string) (model.Policy, error)

	// SetPolicy installs a policy; it applies only to future submissions.
	SetPolicy(ctx context.Context, cohortID string, policy model.Policy) error
}

// MemberStore tracks cohort membership.
type MemberStore interface {
	IsMember(ctx context.Context, cohortID, memberID string) (bool, error)
	AddMember(ctx context.Context, cohortID, memberID string) error
}

// WorstMissStore records the designated worst miss per cycle. Historical
// designations are retained; writing a cycle again overwrites only that
// cycle's record.
type WorstMissStore interface {
	SetWorstMiss(ctx context.Context, cycle model.Cycle, betID string) error

	// WorstMiss returns the designated bet for cycle, or ErrNotFound
	// when no designation has been computed.
	WorstMiss(ctx context.Context, cycle model.Cycle) (model.Bet, error)
}

// Store bundles every persistence concern behind one handle.
type Store interface {
	BetStore
	StandingStore
	PolicyStore
	MemberStore
	WorstMissStore
}

// SortKey selects the standings ordering.
type SortKey string

const (
	SortByMisses   SortKey = "misses"
	SortByHits     SortKey = "hits"
	SortByMissRate SortKey = "missRate"
)

// ParseSortKey validates a caller-provided sort key, defaulting to misses.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.TrimSpace(s) {
	case "", string(SortByMisses):
		return SortByMisses, nil
	case string(SortByHits):
		return SortByHits, nil
	case string(SortByMissRate), "missrate", "miss_rate":
		return SortByMissRate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadSortKey, s)
	}
}

// submissionKey is the duplicate-detection key for a bet submission.
func submissionKey(memberID string, cycle model.Cycle, normText string) string {
	return memberID + "|" + cycle.Key() + "|" + normText
}
