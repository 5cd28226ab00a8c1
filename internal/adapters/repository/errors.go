package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("duplicate submission")
	ErrNoPolicy      = errors.New("cohort has no policy")
	ErrUnknownStatus = errors.New("unknown or non-terminal status")
	ErrBadSortKey    = errors.New("invalid standings sort key")
)
