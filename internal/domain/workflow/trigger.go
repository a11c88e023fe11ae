package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerSubmitCompleted Trigger = "submit_completed"
	TriggerSubmitBlocked   Trigger = "submit_blocked"
	TriggerApprove         Trigger = "approve"
	TriggerReturn          Trigger = "return"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// Outcome is the result a responsible party reports when submitting
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeBlocked   Outcome = "blocked"
)

// Trigger maps the outcome to the submit trigger. ok is false for unknown outcomes.
func (o Outcome) Trigger() (Trigger, bool) {
	switch o {
	case OutcomeCompleted:
		return TriggerSubmitCompleted, true
	case OutcomeBlocked:
		return TriggerSubmitBlocked, true
	default:
		return "", false
	}
}

// DecisionTrigger returns the validator trigger for an approve/return decision
func DecisionTrigger(approve bool) Trigger {
	if approve {
		return TriggerApprove
	}
	return TriggerReturn
}
