package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/domain/entity"
	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
	"github.com/garyjia/ehs-tracker/internal/infrastructure/persistence/sqlite"
)

const defaultListLimit = 100

const itemColumns = `
	id, client_id, title, description, responsible_id, status,
	response_notes, evidence_photos, completed_at,
	validator_id, validator_notes, validated_at,
	created_at, updated_at
`

// WorkflowRepository implements port.WorkflowRepository on SQLite
type WorkflowRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow item repository
func NewWorkflowRepository(db *sql.DB, logger *zap.Logger) port.WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new workflow item
func (r *WorkflowRepository) Create(ctx context.Context, item *entity.WorkflowItem) error {
	photos, err := encodePhotos(item.EvidencePhotos)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workflow_items (
			id, client_id, title, description, responsible_id, status,
			response_notes, evidence_photos, completed_at,
			validator_id, validator_notes, validated_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		item.ID,
		item.ClientID,
		item.Title,
		item.Description,
		item.ResponsibleID,
		string(item.Status),
		item.ResponseNotes,
		photos,
		item.CompletedAt,
		item.ValidatorID,
		item.ValidatorNotes,
		item.ValidatedAt,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create workflow item", zap.String("id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to create workflow item: %w", err)
	}

	return nil
}

// GetByID retrieves a workflow item by ID
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*entity.WorkflowItem, error) {
	query := `SELECT ` + itemColumns + ` FROM workflow_items WHERE id = ?`

	item, err := scanItem(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: workflow item %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get workflow item", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow item: %w", err)
	}

	return item, nil
}

// Update writes the patch only while the stored status equals expected
func (r *WorkflowRepository) Update(ctx context.Context, id string, expected workflow.Status, patch entity.WorkflowPatch) error {
	sets := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{string(patch.Status), patch.UpdatedAt}

	if resp := patch.Response; resp != nil {
		photos, err := encodePhotos(resp.EvidencePhotos)
		if err != nil {
			return err
		}
		sets = append(sets, "completed_at = ?", "response_notes = ?", "evidence_photos = ?", "validated_at = NULL")
		args = append(args, resp.CompletedAt, resp.Notes, photos)
	}
	if dec := patch.Decision; dec != nil {
		sets = append(sets, "validated_at = ?", "validator_id = ?", "validator_notes = ?")
		args = append(args, dec.ValidatedAt, dec.ValidatorID, dec.Notes)
	}

	query := `UPDATE workflow_items SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND status = ?`
	args = append(args, id, string(expected))

	exec := sqlite.ExecutorFor(ctx, r.db)
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update workflow item", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update workflow item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var current string
	err = exec.QueryRowContext(ctx, `SELECT status FROM workflow_items WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: workflow item %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to check workflow item status: %w", err)
	}

	return fmt.Errorf("%w: item %s is %s, expected %s", workflow.ErrInvalidState, id, current, expected)
}

// List retrieves items matching the filter, newest first
func (r *WorkflowRepository) List(ctx context.Context, filter port.ListFilter) ([]*entity.WorkflowItem, error) {
	where, args := filterClause(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + itemColumns + ` FROM workflow_items` + where +
		` ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list workflow items", zap.Error(err))
		return nil, fmt.Errorf("failed to list workflow items: %w", err)
	}
	defer rows.Close()

	items := []*entity.WorkflowItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// CountByStatus groups items by their raw status value
func (r *WorkflowRepository) CountByStatus(ctx context.Context, clientID string) (map[workflow.Status]int, error) {
	where, args := filterClause(port.ListFilter{ClientID: clientID})
	query := `SELECT status, COUNT(*) FROM workflow_items` + where + ` GROUP BY status`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to count workflow items", zap.String("client_id", clientID), zap.Error(err))
		return nil, fmt.Errorf("failed to count workflow items: %w", err)
	}
	defer rows.Close()

	counts := make(map[workflow.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[workflow.Status(status)] = n
	}

	return counts, rows.Err()
}

func filterClause(filter port.ListFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.ClientID != "" {
		conds = append(conds, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.ResponsibleID != "" {
		conds = append(conds, "responsible_id = ?")
		args = append(args, filter.ResponsibleID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*entity.WorkflowItem, error) {
	var item entity.WorkflowItem
	var status, photos string
	var responseNotes, validatorID, validatorNotes sql.NullString
	var completedAt, validatedAt sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.ClientID,
		&item.Title,
		&item.Description,
		&item.ResponsibleID,
		&status,
		&responseNotes,
		&photos,
		&completedAt,
		&validatorID,
		&validatorNotes,
		&validatedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Status = workflow.Status(status)
	item.ResponseNotes = nullString(responseNotes)
	item.ValidatorID = nullString(validatorID)
	item.ValidatorNotes = nullString(validatorNotes)
	item.CompletedAt = nullTime(completedAt)
	item.ValidatedAt = nullTime(validatedAt)

	item.EvidencePhotos = []string{}
	if photos != "" {
		if err := json.Unmarshal([]byte(photos), &item.EvidencePhotos); err != nil {
			return nil, fmt.Errorf("failed to decode evidence photos: %w", err)
		}
	}

	return &item, nil
}

func encodePhotos(photos []string) (string, error) {
	if photos == nil {
		photos = []string{}
	}
	data, err := json.Marshal(photos)
	if err != nil {
		return "", fmt.Errorf("failed to encode evidence photos: %w", err)
	}
	return string(data), nil
}

var _ port.WorkflowRepository = (*WorkflowRepository)(nil)
