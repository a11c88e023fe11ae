package port

import (
	"context"

	"github.com/garyjia/ehs-tracker/internal/domain/entity"
)

// IdentityProvider supplies the current user for a request
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (entity.Identity, error)
}

// RoleResolver resolves the effective role of an authenticated user
type RoleResolver interface {
	Resolve(ctx context.Context, userID string) (entity.Identity, error)
}
