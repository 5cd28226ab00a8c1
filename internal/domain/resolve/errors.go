package resolve

import "errors"

// Sentinel kinds for resolution errors.
var (
	ErrUnknownOutcome = errors.New("unknown oracle outcome")
)
