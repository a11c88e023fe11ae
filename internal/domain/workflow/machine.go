package workflow

import "context"

// StateMachine tracks the current status of one item and validates transitions
type StateMachine interface {
	// State returns the current status
	State() Status

	// CanFire returns true if the trigger is permitted for the actor in ctx
	CanFire(ctx context.Context, trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new status if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired for the actor in ctx
	PermittedTriggers(ctx context.Context) []Trigger
}

// NewDefinition returns the EHS item lifecycle:
//
//	pending   --submit_completed/submit_blocked (responsible)--> submitted_*
//	returned  --submit_completed/submit_blocked (responsible)--> submitted_*
//	submitted --approve (validator)--> approved
//	submitted --return  (validator)--> returned
//
// approved is terminal.
func NewDefinition() StateMachineBuilder {
	b := NewBuilder()

	for _, from := range []Status{StatusPending, StatusReturned} {
		b.Configure(from).
			PermitIf(TriggerSubmitCompleted, StatusSubmittedCompleted, ResponsibleOnly).
			PermitIf(TriggerSubmitBlocked, StatusSubmittedBlocked, ResponsibleOnly)
	}

	for _, from := range []Status{StatusSubmittedCompleted, StatusSubmittedBlocked} {
		b.Configure(from).
			PermitIf(TriggerApprove, StatusApproved, ValidatorOnly).
			PermitIf(TriggerReturn, StatusReturned, ValidatorOnly)
	}

	return b
}
