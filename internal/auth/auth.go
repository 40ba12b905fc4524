// Package auth carries the caller identity through request contexts.
package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned when no identity could be established.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the authenticated caller. Token is the bearer token the caller
// presented, empty for header-based identities.
type Identity struct {
	UserID string
	Token  string
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// Verifier resolves a bearer token to an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
