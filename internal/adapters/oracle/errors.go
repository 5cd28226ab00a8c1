package oracle

import "errors"

// Sentinel kinds for oracle errors.
var (
	// ErrUnresolved means the oracle has no answer yet. Not a failure:
	// the bet simply stays PENDING until a later pass.
	ErrUnresolved = errors.New("line outcome not yet resolved")
)
