package workflow

import "context"

// Actor is the user attempting a transition, seen against a specific item
type Actor struct {
	UserID        string
	ResponsibleID string
}

// IsResponsible reports whether the actor is the item's responsible party
func (a Actor) IsResponsible() bool {
	return a.UserID != "" && a.UserID == a.ResponsibleID
}

// CanValidate reports whether the actor may decide on the item.
// The validator role itself is enforced outside the engine.
func (a Actor) CanValidate() bool {
	return a.UserID != "" && a.UserID != a.ResponsibleID
}

type actorKey struct{}

// WithActor returns a context carrying the actor for guard evaluation
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext extracts the actor stored by WithActor
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// ResponsibleOnly is a guard passing only for the responsible party
func ResponsibleOnly(ctx context.Context) bool {
	actor, ok := ActorFromContext(ctx)
	return ok && actor.IsResponsible()
}

// ValidatorOnly is a guard passing for anyone identified except the responsible party
func ValidatorOnly(ctx context.Context) bool {
	actor, ok := ActorFromContext(ctx)
	return ok && actor.CanValidate()
}
