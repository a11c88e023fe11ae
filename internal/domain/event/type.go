package event

// Type identifies the type of domain event
type Type string

const (
	TypeItemCreated   Type = "workflow.created"
	TypeItemSubmitted Type = "workflow.submitted"
	TypeItemApproved  Type = "workflow.approved"
	TypeItemReturned  Type = "workflow.returned"
	TypeEvidenceAdded Type = "evidence.added"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeItemCreated,
		TypeItemSubmitted,
		TypeItemApproved,
		TypeItemReturned,
		TypeEvidenceAdded:
		return true
	default:
		return false
	}
}

// AllTypes returns every defined event type
func AllTypes() []Type {
	return []Type{
		TypeItemCreated,
		TypeItemSubmitted,
		TypeItemApproved,
		TypeItemReturned,
		TypeEvidenceAdded,
	}
}
