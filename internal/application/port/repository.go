package port

import (
	"context"

	"github.com/garyjia/ehs-tracker/internal/domain/entity"
	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
)

// ListFilter narrows a workflow item listing. Zero values mean "any".
type ListFilter struct {
	ClientID      string
	ResponsibleID string
	Status        workflow.Status
	Limit         int
	Offset        int
}

// WorkflowRepository defines persistence operations for WorkflowItem
type WorkflowRepository interface {
	// Create inserts a new item
	Create(ctx context.Context, item *entity.WorkflowItem) error

	// GetByID returns workflow.ErrNotFound when the item does not exist
	GetByID(ctx context.Context, id string) (*entity.WorkflowItem, error)

	// Update applies the patch only if the stored status still equals expected.
	// It returns workflow.ErrInvalidState when the precondition does not hold.
	Update(ctx context.Context, id string, expected workflow.Status, patch entity.WorkflowPatch) error

	// List returns items ordered by creation time, newest first
	List(ctx context.Context, filter ListFilter) ([]*entity.WorkflowItem, error)

	// CountByStatus returns the number of items per raw status value
	CountByStatus(ctx context.Context, clientID string) (map[workflow.Status]int, error)
}

// HistoryRepository defines persistence operations for TransitionRecord
type HistoryRepository interface {
	Create(ctx context.Context, record *entity.TransitionRecord) error
	GetByItemID(ctx context.Context, itemID string) ([]*entity.TransitionRecord, error)
}

// RoleRepository reads the two role sources used for identity resolution
type RoleRepository interface {
	// GetAppRole returns "" when the user has no app role row
	GetAppRole(ctx context.Context, userID string) (string, error)

	// GetProfile returns nil when the user has no profile row
	GetProfile(ctx context.Context, userID string) (*entity.Profile, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RoleAdministrator maintains role assignments
type RoleAdministrator interface {
	RoleRepository
	SetAppRole(ctx context.Context, userID, role string) error
	UpsertProfile(ctx context.Context, profile *entity.Profile) error
}
