package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrUnauthorized is returned when the actor has no standing for the transition
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState is returned when the item is not in a state that admits the transition
	ErrInvalidState = errors.New("invalid state")

	// ErrNotesRequired is returned when a return decision has no validator notes
	ErrNotesRequired = errors.New("validator notes are required to return an item")

	// ErrPersistenceFailure is returned when the store rejects a write
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrNotFound is returned when the item does not exist
	ErrNotFound = errors.New("workflow item not found")

	// ErrInvalidOutcome is returned for a response outcome other than completed or blocked
	ErrInvalidOutcome = errors.New("invalid response outcome")
)
