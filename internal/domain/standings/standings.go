// Package standings aggregates resolved bets into per-member counters
// and designates each cycle's worst miss.
package standings

import (
	"context"
	"errors"
	"fmt"

	"github.com/bozoleague/propline/internal/adapters/repository"
	"github.com/bozoleague/propline/internal/domain/model"
	"github.com/bozoleague/propline/pkg/logger"
	"github.com/bozoleague/propline/pkg/metrics"
)

// Aggregator folds terminal transitions into the standing store and
// computes worst-miss designations over a cycle's bets.
type Aggregator struct {
	store repository.Store
	log   logger.Logger
}

// New builds an Aggregator over the given store.
func New(store repository.Store, log logger.Logger) *Aggregator {
	return &Aggregator{store: store, log: log.Named("standings")}
}

// Rollup applies one terminal transition to the member's counters.
// Callers invoke it exactly once per transition; the bet store's
// compare-and-set is the guard against double application.
func (a *Aggregator) Rollup(ctx context.Context, bet model.Bet) error {
	if !bet.Status.Terminal() {
		return fmt.Errorf("rolling up bet %s: %w", bet.ID, ErrNotTerminal)
	}
	if err := a.store.Apply(ctx, bet.MemberID, bet.CohortID, bet.Category, bet.Status); err != nil {
		return fmt.Errorf("applying standing for bet %s: %w", bet.ID, err)
	}
	metrics.RecordResolution(string(bet.Status))
	return nil
}

// Standings returns the cohort's entries sorted by key, descending.
func (a *Aggregator) Standings(ctx context.Context, cohortID string, sortBy repository.SortKey) ([]model.StandingEntry, error) {
	return a.store.Standings(ctx, cohortID, sortBy)
}

// SelectWorstMiss picks the worst miss from a cycle's bets: the
// RISK-category MISS with the highest price. Bets without a snapshotted
// price never qualify. Ties keep the earliest submission. The second
// return is false when no bet qualifies.
func SelectWorstMiss(bets []model.Bet) (model.Bet, bool) {
	var worst model.Bet
	found := false
	for _, bet := range bets {
		if bet.Status != model.StatusMiss || bet.Category != model.CategoryRisk || bet.Price == nil {
			continue
		}
		if !found || *bet.Price > *worst.Price {
			worst = bet
			found = true
		}
	}
	return worst, found
}

// DesignateWorstMiss computes and records the cycle's worst miss.
// It returns ErrNoWorstMiss when the cycle has no qualifying bet;
// re-running after further resolutions overwrites the designation.
func (a *Aggregator) DesignateWorstMiss(ctx context.Context, cycle model.Cycle) (model.Bet, error) {
	bets, err := a.store.ListByCycle(ctx, cycle)
	if err != nil {
		return model.Bet{}, fmt.Errorf("listing cycle %s: %w", cycle.Key(), err)
	}

	worst, ok := SelectWorstMiss(bets)
	if !ok {
		return model.Bet{}, fmt.Errorf("cycle %s: %w", cycle.Key(), ErrNoWorstMiss)
	}

	if err := a.store.SetWorstMiss(ctx, cycle, worst.ID); err != nil {
		return model.Bet{}, fmt.Errorf("recording worst miss for %s: %w", cycle.Key(), err)
	}
	metrics.RecordWorstMissPick()
	a.log.Info(ctx, "designated worst miss",
		logger.String("cycle", cycle.Key()),
		logger.String("bet_id", worst.ID),
		logger.String("member_id", worst.MemberID),
		logger.Int("price", *worst.Price))
	return worst, nil
}

// WorstMiss returns the recorded designation for the cycle, computing
// and recording it first if none exists yet.
func (a *Aggregator) WorstMiss(ctx context.Context, cycle model.Cycle) (model.Bet, error) {
	bet, err := a.store.WorstMiss(ctx, cycle)
	if err == nil {
		return bet, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Bet{}, fmt.Errorf("loading worst miss for %s: %w", cycle.Key(), err)
	}
	return a.DesignateWorstMiss(ctx, cycle)
}
