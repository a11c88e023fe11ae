package service

import "context"

type clientScopeKey struct{}

// WithClientScope limits item reads made with ctx to a single client.
// Items of any other client behave as if they did not exist.
func WithClientScope(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientScopeKey{}, clientID)
}

// ClientScopeFrom returns the client set by WithClientScope
func ClientScopeFrom(ctx context.Context) (string, bool) {
	clientID, ok := ctx.Value(clientScopeKey{}).(string)
	return clientID, ok
}
