// Package oracle defines the outcome-oracle boundary: the collaborator
// that knows how a line actually settled. The real sports-data feed is
// out of scope; results enter through the recorded implementation.
package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/bozoleague/propline/internal/domain/model"
)

// Result is a settled outcome for a line.
type Result struct {
	Outcome    model.Outcome
	ObservedAt time.Time
}

// Oracle answers "how did this line settle". A line with no answer yet
// fails with ErrUnresolved; callers leave the bet PENDING in that case.
type Oracle interface {
	Resolve(ctx context.Context, lineID string) (Result, error)
}

// RecordedOracle is an Oracle backed by manually recorded results.
type RecordedOracle struct {
	mu      sync.RWMutex
	results map[string]Result
}

// NewRecordedOracle creates an empty recorded oracle.
func NewRecordedOracle() *RecordedOracle {
	return &RecordedOracle{results: make(map[string]Result)}
}

// Record stores the settled outcome for a line.
func (o *RecordedOracle) Record(lineID string, outcome model.Outcome, observedAt time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results[lineID] = Result{Outcome: outcome, ObservedAt: observedAt}
}

// Resolve returns the recorded outcome for lineID.
func (o *RecordedOracle) Resolve(_ context.Context, lineID string) (Result, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	res, ok := o.results[lineID]
	if !ok {
		return Result{}, ErrUnresolved
	}
	return res, nil
}
