package auth

import (
	"context"
)

type (
	// Authorizer admits requests that present a bearer token. Every
	// request walks the same ladder: decode the token, re-resolve the
	// principal, check scopes, check the active flag.
	Authorizer struct {
		store *Store
		codec *Codec
	}
)

func NewAuthorizer(store *Store, codec *Codec) *Authorizer {
	return &Authorizer{store: store, codec: codec}
}

// Authenticate decodes the presented token and re-resolves its subject
// against the store, so deactivation, role changes or deletion since
// issuance are observed. Any failure surfaces as Unauthenticated; the
// codec-level cause stays reachable through errors.Is for logging.
func (a *Authorizer) Authenticate(ctx context.Context, token string) (*Principal, *Claims, error) {
	claims, err := a.codec.Decode(token)
	if err != nil {
		return nil, nil, Unauthenticated{Cause: err}
	}
	p, err := a.store.FindByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		// principal removed after issuance, the token no longer
		// authenticates anyone
		return nil, nil, Unauthenticated{}
	}
	return p, claims, nil
}

// RequireActive rejects principals whose active flag was cleared after
// their token was issued. Runs after Authenticate on every account-gated
// operation.
func (a *Authorizer) RequireActive(p *Principal) error {
	if !p.IsActive {
		return ErrInactiveAccount
	}
	return nil
}

// Authorize checks every required scope against the scopes carried by the
// token, not against a recomputation from the principal's current role. A
// role downgrade therefore does not shrink an outstanding token's grants
// until it expires; the short codec TTL bounds that window.
func (a *Authorizer) Authorize(claims *Claims, required []string) error {
	for _, want := range required {
		if !containsScope(claims.Scopes, want) {
			return ErrInsufficientScope
		}
	}
	return nil
}

func containsScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}
