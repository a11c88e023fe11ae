package entity

import (
	"time"

	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
)

// WorkflowItem is an EHS action tracked between a responsible and a validator
type WorkflowItem struct {
	ID            string `json:"id"`
	ClientID      string `json:"client_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ResponsibleID string `json:"responsible_id"`

	Status workflow.Status `json:"status"`

	// Response fields, written by the responsible party
	ResponseNotes  *string    `json:"response_notes,omitempty"`
	EvidencePhotos []string   `json:"evidence_photos"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	// Decision fields, kept as "last feedback" across a resubmission
	ValidatorID    *string    `json:"validator_id,omitempty"`
	ValidatorNotes *string    `json:"validator_notes,omitempty"`
	ValidatedAt    *time.Time `json:"validated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CurrentStatus implements workflow.ActionSubject
func (i *WorkflowItem) CurrentStatus() workflow.Status {
	return i.Status
}

// Responsible implements workflow.ActionSubject
func (i *WorkflowItem) Responsible() string {
	return i.ResponsibleID
}

// Clone returns a deep copy so callers never share slices or pointers with the store
func (i *WorkflowItem) Clone() *WorkflowItem {
	c := *i
	c.ResponseNotes = cloneString(i.ResponseNotes)
	c.ValidatorID = cloneString(i.ValidatorID)
	c.ValidatorNotes = cloneString(i.ValidatorNotes)
	c.CompletedAt = cloneTime(i.CompletedAt)
	c.ValidatedAt = cloneTime(i.ValidatedAt)
	c.EvidencePhotos = append([]string{}, i.EvidencePhotos...)
	return &c
}

// Apply returns a copy of the item with the patch applied
func (i *WorkflowItem) Apply(patch WorkflowPatch) *WorkflowItem {
	c := i.Clone()
	c.Status = patch.Status
	if !patch.UpdatedAt.IsZero() {
		c.UpdatedAt = patch.UpdatedAt
	}
	if r := patch.Response; r != nil {
		c.CompletedAt = cloneTime(&r.CompletedAt)
		c.ResponseNotes = cloneString(r.Notes)
		c.EvidencePhotos = append([]string{}, r.EvidencePhotos...)
		// the item is back with a validator; prior validator id and notes stay as feedback
		c.ValidatedAt = nil
	}
	if d := patch.Decision; d != nil {
		c.ValidatedAt = cloneTime(&d.ValidatedAt)
		validator := d.ValidatorID
		c.ValidatorID = &validator
		c.ValidatorNotes = cloneString(d.Notes)
	}
	return c
}

// WorkflowPatch is the restricted set of fields a transition may write
type WorkflowPatch struct {
	Status    workflow.Status
	UpdatedAt time.Time
	Response  *ResponsePatch
	Decision  *DecisionPatch
}

// ResponsePatch carries the fields written when the responsible party submits.
// Applying it clears ValidatedAt.
type ResponsePatch struct {
	CompletedAt    time.Time
	Notes          *string
	EvidencePhotos []string
}

// DecisionPatch carries the fields written when a validator decides.
// A nil Notes clears the previous validator notes.
type DecisionPatch struct {
	ValidatedAt time.Time
	ValidatorID string
	Notes       *string
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
