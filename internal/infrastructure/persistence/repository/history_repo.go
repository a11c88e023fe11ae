package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/domain/entity"
	"github.com/garyjia/ehs-tracker/internal/infrastructure/persistence/sqlite"
)

const historyColumns = `id, item_id, actor_id, previous_status, new_status, trigger_name, notes, created_at`

// HistoryRepository stores the append-only transition trail in SQLite
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

// Create appends a record and sets its ID. It joins the caller's transaction
// when one is present in ctx.
func (r *HistoryRepository) Create(ctx context.Context, record *entity.TransitionRecord) error {
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO transition_history (item_id, actor_id, previous_status, new_status, trigger_name, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ItemID, record.ActorID, record.PreviousStatus, record.NewStatus,
		record.Trigger, record.Notes, record.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append transition",
			zap.String("item_id", record.ItemID),
			zap.String("trigger", record.Trigger),
			zap.Error(err))
		return fmt.Errorf("failed to append transition: %w", err)
	}

	if record.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read transition id: %w", err)
	}
	return nil
}

// GetByItemID returns the trail of one item in the order it was written
func (r *HistoryRepository) GetByItemID(ctx context.Context, itemID string) ([]*entity.TransitionRecord, error) {
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx,
		`SELECT `+historyColumns+` FROM transition_history WHERE item_id = ? ORDER BY created_at, id`,
		itemID,
	)
	if err != nil {
		r.logger.Error("Failed to query transitions", zap.String("item_id", itemID), zap.Error(err))
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()

	trail := make([]*entity.TransitionRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		trail = append(trail, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transitions: %w", err)
	}
	return trail, nil
}

func scanRecord(row rowScanner) (*entity.TransitionRecord, error) {
	var rec entity.TransitionRecord
	if err := row.Scan(
		&rec.ID, &rec.ItemID, &rec.ActorID, &rec.PreviousStatus,
		&rec.NewStatus, &rec.Trigger, &rec.Notes, &rec.Timestamp,
	); err != nil {
		return nil, fmt.Errorf("failed to scan transition: %w", err)
	}
	return &rec, nil
}

var _ port.HistoryRepository = (*HistoryRepository)(nil)
