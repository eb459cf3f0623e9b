// Package auth verifies bearer credentials issued by the identity provider
// and guards routes on the verified identity.
package auth

import (
	"context"
	"errors"
)

// ErrVerification is returned by a Verifier when the token itself is
// rejected: bad signature, expired, wrong issuer or audience, missing claims.
// Other errors from Verify mean the provider could not be consulted.
var ErrVerification = errors.New("token verification failed")

// Identity is the claim set of a verified token.
type Identity struct {
	Subject string
	Email   string
	Claims  map[string]any
}

// Verifier checks a raw bearer token against the identity provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type identityContextKey struct{}

// WithIdentity stores a verified identity in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity stored by the token gate.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	return id, ok && id != nil
}
