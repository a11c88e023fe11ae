package identity

import (
	"context"
	"errors"

	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/domain/entity"
)

// ErrUnauthenticated is returned when no user is attached to the request
var ErrUnauthenticated = errors.New("unauthenticated")

type identityKey struct{}

// WithIdentity attaches the resolved identity to ctx
func WithIdentity(ctx context.Context, id entity.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity attached by WithIdentity
func FromContext(ctx context.Context) (entity.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(entity.Identity)
	return id, ok && !id.Anonymous()
}

// ContextProvider implements port.IdentityProvider over the request context
type ContextProvider struct{}

// CurrentUser returns the request's identity or ErrUnauthenticated
func (ContextProvider) CurrentUser(ctx context.Context) (entity.Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return entity.Identity{}, ErrUnauthenticated
	}
	return id, nil
}

var _ port.IdentityProvider = ContextProvider{}
