package entity

import "time"

// TransitionRecord is the audit trail entry written with every transition
type TransitionRecord struct {
	ID             int64     `json:"id"`
	ItemID         string    `json:"item_id"`
	ActorID        string    `json:"actor_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Trigger        string    `json:"trigger"`
	Notes          string    `json:"notes,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
