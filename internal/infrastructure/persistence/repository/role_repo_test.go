package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/ehs-tracker/internal/domain/entity"
)

func TestRoleRepository(t *testing.T) {
	repo := NewRoleRepository(setupDB(t), zap.NewNop())
	ctx := context.Background()

	role, err := repo.GetAppRole(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, role)

	profile, err := repo.GetProfile(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, profile)

	require.NoError(t, repo.SetAppRole(ctx, "u-1", entity.RoleManager))
	require.NoError(t, repo.SetAppRole(ctx, "u-1", entity.RoleAdmin))
	require.NoError(t, repo.UpsertProfile(ctx, &entity.Profile{UserID: "u-1", FullName: "Ana", Role: entity.RoleViewer, ClientID: "client-1"}))
	require.NoError(t, repo.UpsertProfile(ctx, &entity.Profile{UserID: "u-2", FullName: "Ben"}))

	role, err = repo.GetAppRole(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, role)

	profile, err = repo.GetProfile(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, entity.RoleViewer, profile.Role)
	assert.Equal(t, "client-1", profile.ClientID)

	profile, err = repo.GetProfile(ctx, "u-2")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Empty(t, profile.Role)
}
