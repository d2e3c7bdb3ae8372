package auth

import (
	"context"
	"errors"
)

var ErrNoIdentity = errors.New("auth: no identity in context")

// Identity is the authenticated caller of a request.
type Identity struct {
	Subject     string
	WorkspaceID string
	Role        Role
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller stored by RequireAccessToken.
func FromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.Subject == "" || id.WorkspaceID == "" {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}
