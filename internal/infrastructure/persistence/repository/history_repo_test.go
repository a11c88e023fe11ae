package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/ehs-tracker/internal/domain/entity"
	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
)

func TestHistoryRepository_CreateAndList(t *testing.T) {
	db := setupDB(t)
	items := NewWorkflowRepository(db, zap.NewNop())
	repo := NewHistoryRepository(db, zap.NewNop())
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, items.Create(ctx, testItem("item-1", "client-1", workflow.StatusPending, base)))

	first := &entity.TransitionRecord{
		ItemID:         "item-1",
		ActorID:        "u-resp",
		PreviousStatus: "pending",
		NewStatus:      "submitted_blocked",
		Trigger:        "submit_blocked",
		Timestamp:      base,
	}
	second := &entity.TransitionRecord{
		ItemID:         "item-1",
		ActorID:        "u-val",
		PreviousStatus: "submitted_blocked",
		NewStatus:      "returned",
		Trigger:        "return",
		Notes:          "fix X",
		Timestamp:      base.Add(time.Minute),
	}
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	records, err := repo.GetByItemID(ctx, "item-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "submit_blocked", records[0].Trigger)
	assert.Equal(t, "fix X", records[1].Notes)
	assert.True(t, records[1].Timestamp.Equal(base.Add(time.Minute)))

	records, err = repo.GetByItemID(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, records)
}
