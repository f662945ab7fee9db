package model

import "errors"

var (
	// ErrInvalidReference is returned when an event id does not index an
	// existing event.
	ErrInvalidReference = errors.New("invalid event reference")

	// ErrNotInitialized is returned by mutations before the ledger is created.
	ErrNotInitialized = errors.New("ledger not initialized")

	// ErrAlreadyInitialized is returned when the ledger is created twice.
	ErrAlreadyInitialized = errors.New("ledger already initialized")

	// ErrInvalidBudget is returned for budgets that are not unsigned 128-bit
	// integers.
	ErrInvalidBudget = errors.New("invalid budget")
)
