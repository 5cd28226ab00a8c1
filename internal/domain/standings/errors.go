package standings

import "errors"

var (
	// ErrNotTerminal is returned when a rollup is attempted for a bet
	// that has not reached a terminal status.
	ErrNotTerminal = errors.New("bet is not terminal")

	// ErrNoWorstMiss is returned when a cycle has no qualifying miss.
	ErrNoWorstMiss = errors.New("no qualifying miss in cycle")
)
