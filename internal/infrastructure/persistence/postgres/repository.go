package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/domain/entity"
	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
)

const defaultListLimit = 100

const itemColumns = `id, client_id, title, description, responsible_id, status,
	response_notes, evidence_photos, completed_at,
	validator_id, validator_notes, validated_at,
	created_at, updated_at`

// WorkflowRepository implements port.WorkflowRepository on PostgreSQL
type WorkflowRepository struct {
	db *DB
}

// NewWorkflowRepository creates a workflow item repository on db
func NewWorkflowRepository(db *DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

func (r *WorkflowRepository) Create(ctx context.Context, item *entity.WorkflowItem) error {
	_, err := r.db.querier(ctx).Exec(ctx, `
		INSERT INTO workflow_items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		item.ID,
		item.ClientID,
		item.Title,
		item.Description,
		item.ResponsibleID,
		string(item.Status),
		item.ResponseNotes,
		photosOrEmpty(item.EvidencePhotos),
		item.CompletedAt,
		item.ValidatorID,
		item.ValidatorNotes,
		item.ValidatedAt,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		r.db.logger.Error("Failed to create workflow item", zap.String("id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to create workflow item: %w", err)
	}
	return nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*entity.WorkflowItem, error) {
	item, err := scanItem(r.db.querier(ctx).QueryRow(ctx,
		`SELECT `+itemColumns+` FROM workflow_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: workflow item %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		r.db.logger.Error("Failed to get workflow item", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow item: %w", err)
	}
	return item, nil
}

func (r *WorkflowRepository) Update(ctx context.Context, id string, expected workflow.Status, patch entity.WorkflowPatch) error {
	var b argBuilder
	sets := []string{
		"status = " + b.add(string(patch.Status)),
		"updated_at = " + b.add(patch.UpdatedAt),
	}
	if resp := patch.Response; resp != nil {
		sets = append(sets,
			"completed_at = "+b.add(resp.CompletedAt),
			"response_notes = "+b.add(resp.Notes),
			"evidence_photos = "+b.add(photosOrEmpty(resp.EvidencePhotos)),
			"validated_at = NULL",
		)
	}
	if dec := patch.Decision; dec != nil {
		sets = append(sets,
			"validated_at = "+b.add(dec.ValidatedAt),
			"validator_id = "+b.add(dec.ValidatorID),
			"validator_notes = "+b.add(dec.Notes),
		)
	}
	query := `UPDATE workflow_items SET ` + strings.Join(sets, ", ") +
		` WHERE id = ` + b.add(id) + ` AND status = ` + b.add(string(expected))

	q := r.db.querier(ctx)
	tag, err := q.Exec(ctx, query, b.args...)
	if err != nil {
		r.db.logger.Error("Failed to update workflow item", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update workflow item: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var current string
	err = q.QueryRow(ctx, `SELECT status FROM workflow_items WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: workflow item %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to check workflow item status: %w", err)
	}
	return fmt.Errorf("%w: item %s is %s, expected %s", workflow.ErrInvalidState, id, current, expected)
}

func (r *WorkflowRepository) List(ctx context.Context, filter port.ListFilter) ([]*entity.WorkflowItem, error) {
	var b argBuilder
	where := filterClause(&b, filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `SELECT ` + itemColumns + ` FROM workflow_items` + where +
		` ORDER BY created_at DESC, id ASC LIMIT ` + b.add(limit) + ` OFFSET ` + b.add(filter.Offset)

	rows, err := r.db.querier(ctx).Query(ctx, query, b.args...)
	if err != nil {
		r.db.logger.Error("Failed to list workflow items", zap.Error(err))
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

func (r *WorkflowRepository) CountByStatus(ctx context.Context, clientID string) (map[workflow.Status]int, error) {
	var b argBuilder
	where := filterClause(&b, port.ListFilter{ClientID: clientID})

	rows, err := r.db.querier(ctx).Query(ctx,
		`SELECT status, COUNT(*) FROM workflow_items`+where+` GROUP BY status`, b.args...)
	if err != nil {
		r.db.logger.Error("Failed to count workflow items", zap.String("client_id", clientID), zap.Error(err))
		return nil, fmt.Errorf("failed to count workflow items: %w", err)
	}
	defer rows.Close()

	counts := make(map[workflow.Status]int)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[workflow.Status(status)] = int(n)
	}
	return counts, rows.Err()
}

// HistoryRepository implements port.HistoryRepository on PostgreSQL
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a history repository on db
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Create(ctx context.Context, record *entity.TransitionRecord) error {
	err := r.db.querier(ctx).QueryRow(ctx, `
		INSERT INTO transition_history (
			item_id, actor_id, previous_status, new_status, trigger_name, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		record.ItemID,
		record.ActorID,
		record.PreviousStatus,
		record.NewStatus,
		record.Trigger,
		record.Notes,
		record.Timestamp,
	).Scan(&record.ID)
	if err != nil {
		r.db.logger.Error("Failed to create history record", zap.String("item_id", record.ItemID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) GetByItemID(ctx context.Context, itemID string) ([]*entity.TransitionRecord, error) {
	rows, err := r.db.querier(ctx).Query(ctx, `
		SELECT id, item_id, actor_id, previous_status, new_status, trigger_name, notes, created_at
		FROM transition_history
		WHERE item_id = $1
		ORDER BY created_at ASC, id ASC`, itemID)
	if err != nil {
		r.db.logger.Error("Failed to get history by item ID", zap.String("item_id", itemID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := []*entity.TransitionRecord{}
	for rows.Next() {
		var record entity.TransitionRecord
		if err := rows.Scan(
			&record.ID,
			&record.ItemID,
			&record.ActorID,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.Trigger,
			&record.Notes,
			&record.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// RoleRepository implements port.RoleRepository on PostgreSQL
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a role repository on db
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetAppRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.db.querier(ctx).QueryRow(ctx, `SELECT role FROM app_roles WHERE user_id = $1`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get app role: %w", err)
	}
	return role, nil
}

func (r *RoleRepository) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	var profile entity.Profile
	var role *string
	err := r.db.querier(ctx).QueryRow(ctx,
		`SELECT user_id, full_name, role, client_id FROM profiles WHERE user_id = $1`, userID).
		Scan(&profile.UserID, &profile.FullName, &role, &profile.ClientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if role != nil {
		profile.Role = *role
	}
	return &profile, nil
}

// SetAppRole assigns an explicit application role
func (r *RoleRepository) SetAppRole(ctx context.Context, userID, role string) error {
	_, err := r.db.querier(ctx).Exec(ctx, `
		INSERT INTO app_roles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`, userID, role)
	if err != nil {
		return fmt.Errorf("failed to set app role: %w", err)
	}
	return nil
}

// UpsertProfile creates or replaces a profile
func (r *RoleRepository) UpsertProfile(ctx context.Context, profile *entity.Profile) error {
	var role *string
	if profile.Role != "" {
		role = &profile.Role
	}
	_, err := r.db.querier(ctx).Exec(ctx, `
		INSERT INTO profiles (user_id, full_name, role, client_id) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name, role = EXCLUDED.role, client_id = EXCLUDED.client_id`,
		profile.UserID, profile.FullName, role, profile.ClientID)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// argBuilder numbers positional parameters as they are added
type argBuilder struct {
	args []any
}

func (b *argBuilder) add(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func filterClause(b *argBuilder, filter port.ListFilter) string {
	var conds []string
	if filter.ClientID != "" {
		conds = append(conds, "client_id = "+b.add(filter.ClientID))
	}
	if filter.ResponsibleID != "" {
		conds = append(conds, "responsible_id = "+b.add(filter.ResponsibleID))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+b.add(string(filter.Status)))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func scanItem(row pgx.Row) (*entity.WorkflowItem, error) {
	var item entity.WorkflowItem
	var status string
	err := row.Scan(
		&item.ID,
		&item.ClientID,
		&item.Title,
		&item.Description,
		&item.ResponsibleID,
		&status,
		&item.ResponseNotes,
		&item.EvidencePhotos,
		&item.CompletedAt,
		&item.ValidatorID,
		&item.ValidatorNotes,
		&item.ValidatedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Status = workflow.Status(status)
	if item.EvidencePhotos == nil {
		item.EvidencePhotos = []string{}
	}
	return &item, nil
}

func photosOrEmpty(photos []string) []string {
	if photos == nil {
		return []string{}
	}
	return photos
}

var (
	_ port.WorkflowRepository = (*WorkflowRepository)(nil)
	_ port.HistoryRepository  = (*HistoryRepository)(nil)
	_ port.RoleRepository     = (*RoleRepository)(nil)
)
