package workflow

import "sort"

// Action is a capability a viewer has on an item
type Action string

const (
	ActionRespond  Action = "respond"
	ActionResubmit Action = "resubmit"
	ActionValidate Action = "validate"
)

// ActionSet is the set of actions available to one viewer on one item
type ActionSet map[Action]bool

// Has reports whether the action is in the set
func (s ActionSet) Has(a Action) bool {
	return s[a]
}

// Empty reports whether no action is available
func (s ActionSet) Empty() bool {
	return len(s) == 0
}

// List returns the actions sorted by name
func (s ActionSet) List() []Action {
	actions := make([]Action, 0, len(s))
	for a := range s {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

// ActionSubject is the part of an item the resolver needs
type ActionSubject interface {
	CurrentStatus() Status
	Responsible() string
}

// AvailableActions derives what viewerID may do on the item. Respond and
// validate are mutually exclusive for any viewer; resubmit is respond relabelled
// for a returned item and always comes with it.
func AvailableActions(item ActionSubject, viewerID string) ActionSet {
	actions := ActionSet{}
	if viewerID == "" {
		return actions
	}

	status := item.CurrentStatus()
	isResponsible := viewerID == item.Responsible()

	switch {
	case isResponsible && status.AwaitingResponse():
		actions[ActionRespond] = true
		if status == StatusReturned {
			actions[ActionResubmit] = true
		}
	case !isResponsible && status.AwaitingValidation():
		actions[ActionValidate] = true
	}

	return actions
}
