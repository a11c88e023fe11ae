package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/ehs-tracker/internal/application/dispatcher"
	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/domain/entity"
	"github.com/garyjia/ehs-tracker/internal/domain/event"
	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ErrInvalidInput is returned for missing create fields and unknown evidence refs
var ErrInvalidInput = errors.New("invalid input")

const triggerCreate = "create"

// CreateItemRequest holds the fields of a new workflow item
type CreateItemRequest struct {
	ClientID      string
	Title         string
	Description   string
	ResponsibleID string
	CreatedBy     string
}

// WorkflowService drives EHS items through the response/validation workflow
type WorkflowService interface {
	Create(ctx context.Context, req CreateItemRequest) (*entity.WorkflowItem, error)
	Get(ctx context.Context, id string) (*entity.WorkflowItem, error)
	List(ctx context.Context, filter port.ListFilter) ([]*entity.WorkflowItem, error)
	History(ctx context.Context, id string) ([]*entity.TransitionRecord, error)

	// SubmitResponse records the responsible party's outcome for a pending or returned item
	SubmitResponse(ctx context.Context, itemID string, outcome workflow.Outcome, notes *string, evidencePhotos []string, actingUserID string) (*entity.WorkflowItem, error)

	// SubmitDecision records a validator's approve/return decision on a submitted item
	SubmitDecision(ctx context.Context, itemID string, approve bool, notes *string, actingUserID string) (*entity.WorkflowItem, error)
}

// WorkflowOption configures the workflow service
type WorkflowOption func(*workflowServiceImpl)

// WithClock overrides the time source used for completedAt/validatedAt
func WithClock(now func() time.Time) WorkflowOption {
	return func(s *workflowServiceImpl) {
		s.now = now
	}
}

// WithEvidenceStore makes SubmitResponse reject evidence refs the store does not hold
func WithEvidenceStore(store port.EvidenceStore) WorkflowOption {
	return func(s *workflowServiceImpl) {
		s.evidence = store
	}
}

// WithDispatcher publishes workflow events after each committed transition
func WithDispatcher(d dispatcher.Dispatcher) WorkflowOption {
	return func(s *workflowServiceImpl) {
		s.dispatcher = d
	}
}

type workflowServiceImpl struct {
	itemRepo    port.WorkflowRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	definition  workflow.StateMachineBuilder
	dispatcher  dispatcher.Dispatcher
	evidence    port.EvidenceStore
	logger      Logger
	now         func() time.Time
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	itemRepo port.WorkflowRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	logger Logger,
	opts ...WorkflowOption,
) WorkflowService {
	s := &workflowServiceImpl{
		itemRepo:    itemRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		definition:  workflow.NewDefinition(),
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a new item in pending status
func (s *workflowServiceImpl) Create(ctx context.Context, req CreateItemRequest) (*entity.WorkflowItem, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.ResponsibleID) == "" {
		return nil, fmt.Errorf("%w: responsible_id is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	item := &entity.WorkflowItem{
		ID:             uuid.NewString(),
		ClientID:       req.ClientID,
		Title:          title,
		Description:    req.Description,
		ResponsibleID:  req.ResponsibleID,
		Status:         workflow.StatusPending,
		EvidencePhotos: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Create(txCtx, item); err != nil {
			return fmt.Errorf("create item: %w", err)
		}
		return s.historyRepo.Create(txCtx, &entity.TransitionRecord{
			ItemID:    item.ID,
			ActorID:   req.CreatedBy,
			NewStatus: string(workflow.StatusPending),
			Trigger:   triggerCreate,
			Timestamp: now,
		})
	})
	if err != nil {
		s.logger.Error("Failed to create workflow item", "error", err, "client_id", req.ClientID)
		return nil, fmt.Errorf("%w: %w", workflow.ErrPersistenceFailure, err)
	}

	s.logger.Info("Workflow item created", "id", item.ID, "responsible_id", item.ResponsibleID)
	s.publish(ctx, event.TypeItemCreated, item, req.CreatedBy, nil)
	return item, nil
}

// Get retrieves an item by ID
func (s *workflowServiceImpl) Get(ctx context.Context, id string) (*entity.WorkflowItem, error) {
	return s.load(ctx, id)
}

// List retrieves a filtered page of items
func (s *workflowServiceImpl) List(ctx context.Context, filter port.ListFilter) ([]*entity.WorkflowItem, error) {
	items, err := s.itemRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list workflow items", "error", err, "client_id", filter.ClientID)
		return nil, fmt.Errorf("%w: %w", workflow.ErrPersistenceFailure, err)
	}
	return items, nil
}

// History returns the transition trail of an item
func (s *workflowServiceImpl) History(ctx context.Context, id string) ([]*entity.TransitionRecord, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	records, err := s.historyRepo.GetByItemID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get history", "error", err, "id", id)
		return nil, fmt.Errorf("%w: %w", workflow.ErrPersistenceFailure, err)
	}
	return records, nil
}

// SubmitResponse moves a pending or returned item to submitted_completed or
// submitted_blocked. Prior validator fields stay as last feedback.
func (s *workflowServiceImpl) SubmitResponse(
	ctx context.Context,
	itemID string,
	outcome workflow.Outcome,
	notes *string,
	evidencePhotos []string,
	actingUserID string,
) (*entity.WorkflowItem, error) {
	trigger, ok := outcome.Trigger()
	if !ok {
		return nil, fmt.Errorf("%w: %q", workflow.ErrInvalidOutcome, outcome)
	}

	item, err := s.load(ctx, itemID)
	if err != nil {
		return nil, err
	}

	actor := workflow.Actor{UserID: actingUserID, ResponsibleID: item.ResponsibleID}
	if !actor.IsResponsible() {
		return nil, fmt.Errorf("%w: only the responsible party can respond to item %s", workflow.ErrUnauthorized, itemID)
	}
	if err := s.checkEvidence(ctx, evidencePhotos); err != nil {
		return nil, err
	}

	next, err := s.fire(ctx, item, actor, trigger)
	if err != nil {
		return nil, err
	}

	photos := append([]string{}, evidencePhotos...)
	patch := entity.WorkflowPatch{
		Status: next,
		Response: &entity.ResponsePatch{
			CompletedAt:    s.now().UTC(),
			Notes:          normalizeNotes(notes),
			EvidencePhotos: photos,
		},
	}

	updated, err := s.commit(ctx, item, actor, trigger, patch, patch.Response.Notes)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.TypeItemSubmitted, updated, actingUserID, map[string]interface{}{
		"outcome":        string(outcome),
		"resubmission":   item.Status == workflow.StatusReturned,
		"evidence_count": len(photos),
	})
	return updated, nil
}

// SubmitDecision approves or returns a submitted item. Returning requires notes;
// that rule is checked before the item is even read.
func (s *workflowServiceImpl) SubmitDecision(
	ctx context.Context,
	itemID string,
	approve bool,
	notes *string,
	actingUserID string,
) (*entity.WorkflowItem, error) {
	notes = normalizeNotes(notes)
	if !approve && notes == nil {
		return nil, workflow.ErrNotesRequired
	}

	item, err := s.load(ctx, itemID)
	if err != nil {
		return nil, err
	}

	actor := workflow.Actor{UserID: actingUserID, ResponsibleID: item.ResponsibleID}
	if !actor.CanValidate() {
		return nil, fmt.Errorf("%w: user cannot validate item %s", workflow.ErrUnauthorized, itemID)
	}

	trigger := workflow.DecisionTrigger(approve)
	next, err := s.fire(ctx, item, actor, trigger)
	if err != nil {
		return nil, err
	}

	patch := entity.WorkflowPatch{
		Status: next,
		Decision: &entity.DecisionPatch{
			ValidatedAt: s.now().UTC(),
			ValidatorID: actingUserID,
			Notes:       notes,
		},
	}

	updated, err := s.commit(ctx, item, actor, trigger, patch, notes)
	if err != nil {
		return nil, err
	}

	eventType := event.TypeItemApproved
	if !approve {
		eventType = event.TypeItemReturned
	}
	s.publish(ctx, eventType, updated, actingUserID, nil)
	return updated, nil
}

func (s *workflowServiceImpl) load(ctx context.Context, id string) (*entity.WorkflowItem, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to get workflow item", "error", err, "id", id)
		return nil, fmt.Errorf("%w: %w", workflow.ErrPersistenceFailure, err)
	}
	if clientID, scoped := ClientScopeFrom(ctx); scoped && item.ClientID != clientID {
		s.logger.Info("Workflow item outside client scope", "id", id, "client_id", clientID)
		return nil, fmt.Errorf("%w: workflow item %s", workflow.ErrNotFound, id)
	}
	return item, nil
}

func (s *workflowServiceImpl) checkEvidence(ctx context.Context, refs []string) error {
	if s.evidence == nil {
		return nil
	}
	for _, ref := range refs {
		if !s.evidence.Exists(ctx, ref) {
			return fmt.Errorf("%w: unknown evidence ref %q", ErrInvalidInput, ref)
		}
	}
	return nil
}

// fire runs the trigger on a throwaway machine and returns the target status
func (s *workflowServiceImpl) fire(ctx context.Context, item *entity.WorkflowItem, actor workflow.Actor, trigger workflow.Trigger) (workflow.Status, error) {
	machine := s.definition.Build(item.Status)
	if err := machine.Fire(workflow.WithActor(ctx, actor), trigger); err != nil {
		switch {
		case errors.Is(err, workflow.ErrGuardFailed):
			return "", fmt.Errorf("%w: %v", workflow.ErrUnauthorized, err)
		default:
			return "", fmt.Errorf("%w: %v", workflow.ErrInvalidState, err)
		}
	}
	return machine.State(), nil
}

// commit writes the patch and its history record atomically. The returned item
// is built only after the store confirms.
func (s *workflowServiceImpl) commit(
	ctx context.Context,
	item *entity.WorkflowItem,
	actor workflow.Actor,
	trigger workflow.Trigger,
	patch entity.WorkflowPatch,
	notes *string,
) (*entity.WorkflowItem, error) {
	now := s.now().UTC()
	patch.UpdatedAt = now
	record := &entity.TransitionRecord{
		ItemID:         item.ID,
		ActorID:        actor.UserID,
		PreviousStatus: string(item.Status),
		NewStatus:      string(patch.Status),
		Trigger:        string(trigger),
		Timestamp:      now,
	}
	if notes != nil {
		record.Notes = *notes
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Update(txCtx, item.ID, item.Status, patch); err != nil {
			return err
		}
		if err := s.historyRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to apply transition",
			"error", err,
			"id", item.ID,
			"trigger", trigger,
			"from", item.Status,
			"to", patch.Status,
		)
		if errors.Is(err, workflow.ErrInvalidState) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", workflow.ErrPersistenceFailure, err)
	}

	updated := item.Apply(patch)

	s.logger.Info("Workflow transition applied",
		"id", item.ID,
		"trigger", trigger,
		"from", item.Status,
		"to", patch.Status,
		"actor", actor.UserID,
	)
	return updated, nil
}

func (s *workflowServiceImpl) publish(ctx context.Context, t event.Type, item *entity.WorkflowItem, actorID string, payload map[string]interface{}) {
	if s.dispatcher == nil {
		return
	}
	evt := event.NewEvent(t, item.ID, actorID, payload).
		WithPayload("status", string(item.Status)).
		WithPayload("client_id", item.ClientID)
	s.dispatcher.DispatchAsync(ctx, evt)
}

// normalizeNotes maps blank notes to nil and trims surrounding whitespace
func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
