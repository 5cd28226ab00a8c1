package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bozoleague/propline/internal/domain/model"
)

// MemoryStore is a mutex-guarded in-memory Store. Bets keep submission
// order so tie-breaks downstream stay deterministic.
type MemoryStore struct {
	mu            sync.RWMutex
	bets          []model.Bet
	betIndex      map[string]int    // bet id -> index into bets
	submissions   map[string]string // submission key -> bet id
	standings     map[string]*model.StandingEntry
	standingOrder []string
	policies      map[string]model.Policy
	members       map[string]map[string]bool
	worstMiss     map[string]string // cycle key -> bet id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		betIndex:    make(map[string]int),
		submissions: make(map[string]string),
		standings:   make(map[string]*model.StandingEntry),
		policies:    make(map[string]model.Policy),
		members:     make(map[string]map[string]bool),
		worstMiss:   make(map[string]string),
	}
}

// Create persists a new bet, rejecting duplicate submissions.
func (s *MemoryStore) Create(_ context.Context, bet model.Bet, normText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.betIndex[bet.ID]; ok {
		return fmt.Errorf("%w: bet id %s", ErrDuplicate, bet.ID)
	}
	key := submissionKey(bet.MemberID, bet.Cycle, normText)
	if _, ok := s.submissions[key]; ok {
		return fmt.Errorf("%w: %s already submitted this for %s", ErrDuplicate, bet.MemberID, bet.Cycle.Key())
	}

	s.bets = append(s.bets, bet)
	s.betIndex[bet.ID] = len(s.bets) - 1
	s.submissions[key] = bet.ID
	return nil
}

// Get returns a bet by id.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.betIndex[id]
	if !ok {
		return model.Bet{}, fmt.Errorf("%w: bet %s", ErrNotFound, id)
	}
	return s.bets[idx], nil
}

// FindSubmission returns the bet created for a submission key.
func (s *MemoryStore) FindSubmission(_ context.Context, memberID string, cycle model.Cycle, normText string) (model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.submissions[submissionKey(memberID, cycle, normText)]
	if !ok {
		return model.Bet{}, ErrNotFound
	}
	return s.bets[s.betIndex[id]], nil
}

// ListPending returns the cycle's PENDING bets in submission order.
func (s *MemoryStore) ListPending(ctx context.Context, cycle model.Cycle) ([]model.Bet, error) {
	return s.list(cycle, true)
}

// ListByCycle returns all of the cycle's bets in submission order.
func (s *MemoryStore) ListByCycle(ctx context.Context, cycle model.Cycle) ([]model.Bet, error) {
	return s.list(cycle, false)
}

func (s *MemoryStore) list(cycle model.Cycle, pendingOnly bool) ([]model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Bet
	for _, b := range s.bets {
		if b.Cycle != cycle {
			continue
		}
		if pendingOnly && b.Status != model.StatusPending {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Resolve performs the PENDING -> terminal compare-and-set.
func (s *MemoryStore) Resolve(_ context.Context, id string, status model.Status, at time.Time) (model.Bet, bool, error) {
	if !status.Terminal() {
		return model.Bet{}, false, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.betIndex[id]
	if !ok {
		return model.Bet{}, false, fmt.Errorf("%w: bet %s", ErrNotFound, id)
	}
	bet := s.bets[idx]
	if bet.Status.Terminal() {
		return bet, false, nil
	}

	bet.Status = status
	resolvedAt := at
	bet.ResolvedAt = &resolvedAt
	s.bets[idx] = bet
	return bet, true, nil
}

// Apply folds one terminal transition into the member's counters.
func (s *MemoryStore) Apply(_ context.Context, memberID, cohortID string, category model.Category, status model.Status) error {
	if !status.Terminal() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberID + "|" + cohortID
	entry, ok := s.standings[key]
	if !ok {
		entry = &model.StandingEntry{MemberID: memberID, CohortID: cohortID}
		s.standings[key] = entry
		s.standingOrder = append(s.standingOrder, key)
	}

	switch status {
	case model.StatusHit:
		entry.Hits++
	case model.StatusMiss:
		entry.Misses++
		if category == model.CategoryRisk {
			entry.RiskMisses++
		} else {
			entry.SafeMisses++
		}
	case model.StatusPush:
		entry.Pushes++
	case model.StatusVoid:
		entry.Voids++
	}
	return nil
}

// Standings returns entries sorted by key descending, first-seen order
// breaking ties.
func (s *MemoryStore) Standings(_ context.Context, cohortID string, sortBy SortKey) ([]model.StandingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.StandingEntry, 0, len(s.standingOrder))
	for _, key := range s.standingOrder {
		e := s.standings[key]
		if cohortID != "" && e.CohortID != cohortID {
			continue
		}
		out = append(out, *e)
	}
	sortStandings(out, sortBy)
	return out, nil
}

func sortStandings(entries []model.StandingEntry, sortBy SortKey) {
	sort.SliceStable(entries, func(i, j int) bool {
		switch sortBy {
		case SortByHits:
			return entries[i].Hits > entries[j].Hits
		case SortByMissRate:
			return entries[i].MissRate() > entries[j].MissRate()
		default:
			return entries[i].Misses > entries[j].Misses
		}
	})
}

// Policy returns the cohort's price policy.
func (s *MemoryStore) Policy(_ context.Context, cohortID string) (model.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[cohortID]
	if !ok {
		return model.Policy{}, fmt.Errorf("%w: %s", ErrNoPolicy, cohortID)
	}
	return p, nil
}

// SetPolicy installs a cohort policy.
func (s *MemoryStore) SetPolicy(_ context.Context, cohortID string, policy model.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[cohortID] = policy
	return nil
}

// IsMember reports cohort membership.
func (s *MemoryStore) IsMember(_ context.Context, cohortID, memberID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members[cohortID][memberID], nil
}

// AddMember registers a member with a cohort.
func (s *MemoryStore) AddMember(_ context.Context, cohortID, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.members[cohortID] == nil {
		s.members[cohortID] = make(map[string]bool)
	}
	s.members[cohortID][memberID] = true
	return nil
}

// SetWorstMiss records the cycle's worst-miss designation.
func (s *MemoryStore) SetWorstMiss(_ context.Context, cycle model.Cycle, betID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.betIndex[betID]; !ok {
		return fmt.Errorf("%w: bet %s", ErrNotFound, betID)
	}
	s.worstMiss[cycle.Key()] = betID
	return nil
}

// WorstMiss returns the cycle's designated bet.
func (s *MemoryStore) WorstMiss(_ context.Context, cycle model.Cycle) (model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.worstMiss[cycle.Key()]
	if !ok {
		return model.Bet{}, fmt.Errorf("%w: no worst miss for %s", ErrNotFound, cycle.Key())
	}
	return s.bets[s.betIndex[id]], nil
}
