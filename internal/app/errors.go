package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrScheduleClosed  = errors.New("resolution window is closed")
	ErrQueueFull       = errors.New("resolution queue is full")
	ErrCatalogReadOnly = errors.New("catalog does not accept feeds")
	ErrOracleReadOnly  = errors.New("oracle does not accept recorded outcomes")
)
