package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/domain/entity"
	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
	"github.com/garyjia/ehs-tracker/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/ehs-tracker/pkg/database"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "ehs.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.NewMigrator(db, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	return db.DB
}

func strPtr(s string) *string { return &s }

func testItem(id, clientID string, status workflow.Status, created time.Time) *entity.WorkflowItem {
	return &entity.WorkflowItem{
		ID:             id,
		ClientID:       clientID,
		Title:          "Item " + id,
		ResponsibleID:  "u-resp",
		Status:         status,
		EvidencePhotos: []string{},
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestWorkflowRepository_CreateAndGet(t *testing.T) {
	db := setupDB(t)
	repo := NewWorkflowRepository(db, zap.NewNop())
	ctx := context.Background()

	created := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	item := testItem("item-1", "client-1", workflow.StatusPending, created)
	item.Description = "Exit sign out"
	require.NoError(t, repo.Create(ctx, item))

	got, err := repo.GetByID(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Exit sign out", got.Description)
	assert.Equal(t, workflow.StatusPending, got.Status)
	assert.Nil(t, got.ResponseNotes)
	assert.Nil(t, got.CompletedAt)
	assert.Empty(t, got.EvidencePhotos)
	assert.True(t, got.CreatedAt.Equal(created))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestWorkflowRepository_UpdateAppliesPatch(t *testing.T) {
	db := setupDB(t)
	repo := NewWorkflowRepository(db, zap.NewNop())
	ctx := context.Background()

	now := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testItem("item-1", "client-1", workflow.StatusPending, now)))

	err := repo.Update(ctx, "item-1", workflow.StatusPending, entity.WorkflowPatch{
		Status:    workflow.StatusSubmittedBlocked,
		UpdatedAt: now,
		Response: &entity.ResponsePatch{
			CompletedAt:    now,
			Notes:          strPtr("waiting on contractor"),
			EvidencePhotos: []string{"u-resp/a.jpg", "u-resp/b.png"},
		},
	})
	require.NoError(t, err)

	later := now.Add(time.Hour)
	err = repo.Update(ctx, "item-1", workflow.StatusSubmittedBlocked, entity.WorkflowPatch{
		Status:    workflow.StatusReturned,
		UpdatedAt: later,
		Decision: &entity.DecisionPatch{
			ValidatedAt: later,
			ValidatorID: "u-val",
			Notes:       strPtr("fix X"),
		},
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusReturned, got.Status)
	assert.Equal(t, "waiting on contractor", *got.ResponseNotes)
	assert.Equal(t, []string{"u-resp/a.jpg", "u-resp/b.png"}, got.EvidencePhotos)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(now))
	assert.Equal(t, "u-val", *got.ValidatorID)
	assert.Equal(t, "fix X", *got.ValidatorNotes)
	require.NotNil(t, got.ValidatedAt)
	assert.True(t, got.ValidatedAt.Equal(later))
	assert.True(t, got.UpdatedAt.Equal(later))

	resubmitted := later.Add(time.Hour)
	err = repo.Update(ctx, "item-1", workflow.StatusReturned, entity.WorkflowPatch{
		Status:    workflow.StatusSubmittedCompleted,
		UpdatedAt: resubmitted,
		Response: &entity.ResponsePatch{
			CompletedAt: resubmitted,
			Notes:       strPtr("fixed"),
		},
	})
	require.NoError(t, err)

	got, err = repo.GetByID(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSubmittedCompleted, got.Status)
	assert.Nil(t, got.ValidatedAt)
	assert.Equal(t, "u-val", *got.ValidatorID)
	assert.Equal(t, "fix X", *got.ValidatorNotes)
}

func TestWorkflowRepository_UpdatePrecondition(t *testing.T) {
	db := setupDB(t)
	repo := NewWorkflowRepository(db, zap.NewNop())
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, testItem("item-1", "client-1", workflow.StatusApproved, now)))

	patch := entity.WorkflowPatch{Status: workflow.StatusReturned, UpdatedAt: now}

	err := repo.Update(ctx, "item-1", workflow.StatusSubmittedCompleted, patch)
	assert.ErrorIs(t, err, workflow.ErrInvalidState)

	err = repo.Update(ctx, "missing", workflow.StatusPending, patch)
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	got, err := repo.GetByID(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, got.Status)
}

func TestWorkflowRepository_ListAndCount(t *testing.T) {
	db := setupDB(t)
	repo := NewWorkflowRepository(db, zap.NewNop())
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fixtures := []*entity.WorkflowItem{
		testItem("a", "client-1", workflow.StatusPending, base),
		testItem("b", "client-1", workflow.StatusPending, base.Add(time.Hour)),
		testItem("c", "client-1", workflow.StatusApproved, base.Add(2*time.Hour)),
		testItem("d", "client-2", workflow.StatusReturned, base.Add(3*time.Hour)),
		testItem("e", "client-1", workflow.Status("legacy_hold"), base.Add(4*time.Hour)),
	}
	for _, it := range fixtures {
		require.NoError(t, repo.Create(ctx, it))
	}

	items, err := repo.List(ctx, port.ListFilter{ClientID: "client-1"})
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "e", items[0].ID)
	assert.Equal(t, workflow.Status("legacy_hold"), items[0].Status)

	items, err = repo.List(ctx, port.ListFilter{ClientID: "client-1", Status: workflow.StatusPending})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = repo.List(ctx, port.ListFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "d", items[0].ID)

	counts, err := repo.CountByStatus(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[workflow.StatusPending])
	assert.Equal(t, 1, counts[workflow.StatusApproved])
	assert.Equal(t, 1, counts[workflow.Status("legacy_hold")])
	assert.Zero(t, counts[workflow.StatusReturned])
}

func TestTransaction_RollbackDiscardsUpdateAndHistory(t *testing.T) {
	db := setupDB(t)
	logger := zap.NewNop()
	repo := NewWorkflowRepository(db, logger)
	history := NewHistoryRepository(db, logger)
	tx := sqlite.NewDB(db, logger)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, testItem("item-1", "client-1", workflow.StatusPending, now)))

	boom := errors.New("boom")
	err := tx.WithTransaction(ctx, func(txCtx context.Context) error {
		require.NotNil(t, sqlite.TxFromContext(txCtx))
		if err := repo.Update(txCtx, "item-1", workflow.StatusPending, entity.WorkflowPatch{
			Status:    workflow.StatusSubmittedCompleted,
			UpdatedAt: now,
			Response:  &entity.ResponsePatch{CompletedAt: now},
		}); err != nil {
			return err
		}
		if err := history.Create(txCtx, &entity.TransitionRecord{
			ItemID:         "item-1",
			ActorID:        "u-resp",
			PreviousStatus: "pending",
			NewStatus:      "submitted_completed",
			Trigger:        "submit_completed",
			Timestamp:      now,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, got.Status)
	assert.Nil(t, got.CompletedAt)

	records, err := history.GetByItemID(ctx, "item-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}
