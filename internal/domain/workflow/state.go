package workflow

// Status is the workflow status of an EHS item. It is stored as free text, so a
// value read back from the store is not guaranteed to be one of the known constants.
type Status string

const (
	StatusPending            Status = "pending"
	StatusSubmittedCompleted Status = "submitted_completed"
	StatusSubmittedBlocked   Status = "submitted_blocked"
	StatusApproved           Status = "approved"
	StatusReturned           Status = "returned"
)

// Owner identifies who is expected to act on an item next
type Owner string

const (
	OwnerResponsible Owner = "responsible"
	OwnerValidator   Owner = "validator"
	OwnerClosed      Owner = "closed"
	OwnerUnknown     Owner = "unknown"
)

// Badge is the display tone attached to a status
type Badge string

const (
	BadgeNeutral Badge = "neutral"
	BadgeInfo    Badge = "info"
	BadgeWarning Badge = "warning"
	BadgeSuccess Badge = "success"
	BadgeDanger  Badge = "danger"
	BadgeUnknown Badge = "unknown"
)

type statusInfo struct {
	label string
	badge Badge
	owner Owner
}

var knownStatuses = map[Status]statusInfo{
	StatusPending:            {label: "Pending", badge: BadgeNeutral, owner: OwnerResponsible},
	StatusSubmittedCompleted: {label: "Submitted (completed)", badge: BadgeInfo, owner: OwnerValidator},
	StatusSubmittedBlocked:   {label: "Submitted (blocked)", badge: BadgeWarning, owner: OwnerValidator},
	StatusApproved:           {label: "Approved", badge: BadgeSuccess, owner: OwnerClosed},
	StatusReturned:           {label: "Returned", badge: BadgeDanger, owner: OwnerResponsible},
}

// Statuses lists the known statuses in lifecycle order
func Statuses() []Status {
	return []Status{
		StatusPending,
		StatusSubmittedCompleted,
		StatusSubmittedBlocked,
		StatusReturned,
		StatusApproved,
	}
}

// String returns the raw status value
func (s Status) String() string {
	return string(s)
}

// Known reports whether s is one of the five workflow statuses.
// Unknown values pass through unchanged and admit no transitions.
func (s Status) Known() bool {
	_, ok := knownStatuses[s]
	return ok
}

// IsTerminal returns true if no transition leaves the status
func (s Status) IsTerminal() bool {
	return s == StatusApproved
}

// Label returns a display label. Unrecognized statuses are displayed raw.
func (s Status) Label() string {
	if info, ok := knownStatuses[s]; ok {
		return info.label
	}
	return string(s)
}

// Badge returns the display tone of the status
func (s Status) Badge() Badge {
	if info, ok := knownStatuses[s]; ok {
		return info.badge
	}
	return BadgeUnknown
}

// Owner returns who currently owns an item in this status
func (s Status) Owner() Owner {
	if info, ok := knownStatuses[s]; ok {
		return info.owner
	}
	return OwnerUnknown
}

// AwaitingResponse is true for statuses the responsible party acts on
func (s Status) AwaitingResponse() bool {
	return s == StatusPending || s == StatusReturned
}

// AwaitingValidation is true for statuses a validator acts on
func (s Status) AwaitingValidation() bool {
	return s == StatusSubmittedCompleted || s == StatusSubmittedBlocked
}
