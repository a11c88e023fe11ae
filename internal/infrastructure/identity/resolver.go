package identity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/domain/entity"
)

// Resolver implements port.RoleResolver. An explicit app role takes
// precedence over the role stored on the profile.
type Resolver struct {
	roles  port.RoleRepository
	logger *zap.Logger
}

// NewResolver creates a new Resolver
func NewResolver(roles port.RoleRepository, logger *zap.Logger) *Resolver {
	return &Resolver{
		roles:  roles,
		logger: logger,
	}
}

// Resolve returns the identity of userID with its effective role
func (r *Resolver) Resolve(ctx context.Context, userID string) (entity.Identity, error) {
	if userID == "" {
		return entity.Identity{}, ErrUnauthenticated
	}

	id := entity.Identity{ID: userID}

	appRole, err := r.roles.GetAppRole(ctx, userID)
	if err != nil {
		return entity.Identity{}, fmt.Errorf("failed to resolve app role: %w", err)
	}

	profile, err := r.roles.GetProfile(ctx, userID)
	if err != nil {
		return entity.Identity{}, fmt.Errorf("failed to resolve profile: %w", err)
	}

	switch {
	case appRole != "":
		id.Role = appRole
	case profile != nil:
		id.Role = profile.Role
	}
	if profile != nil {
		id.ClientID = profile.ClientID
	}

	r.logger.Debug("Identity resolved",
		zap.String("user_id", userID),
		zap.String("role", id.Role),
		zap.Bool("app_role", appRole != ""))
	return id, nil
}

var _ port.RoleResolver = (*Resolver)(nil)
