package match

import "errors"

// Sentinel kinds for matcher errors.
var (
	// ErrCatalogUnavailable distinguishes a failed catalog fetch from a
	// plain no-match result so callers can offer a manual-entry fallback.
	ErrCatalogUnavailable = errors.New("line catalog unavailable")
)
