package auth

import (
	"context"
	"fmt"
)

type (
	// Authenticator turns submitted credential pairs into signed bearer
	// tokens. It is safe for concurrent use, all state lives in the store
	// and the codec.
	Authenticator struct {
		store *Store
		codec *Codec
	}
)

// decoyDigest is verified against on logins for unknown emails, so the
// missing-principal path burns roughly the same work as a real
// verification and cannot be told apart by timing. The plaintext behind it
// was discarded, no password matches it.
const decoyDigest = "$argon2id$v=19$m=65536,t=3,p=2$fY5RPM0T3vDQ0SxYVYVcqg$8vJnKDHuhrT0hFUi3pLmTr0hcYqDUHjlQjM5Y3a1uJ0"

// NewAuthenticator wires the store and the token codec. codec may be nil
// when only Register is exercised (administrative provisioning).
func NewAuthenticator(store *Store, codec *Codec) *Authenticator {
	return &Authenticator{store: store, codec: codec}
}

// Register creates a new active principal. The plaintext password is
// hashed right away and never stored or logged. Duplicate emails fail
// with ErrDuplicateIdentity, including when two registrations race: the
// unique constraint on the store picks the single winner.
func (a *Authenticator) Register(ctx context.Context, email, password string, role Role) (*Principal, error) {
	if !role.Valid() {
		return nil, UnknownRole{Role: string(role)}
	}
	existing, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateIdentity
	}
	digest, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("unable to hash password for %v, cause %w", email, err)
	}
	p := &Principal{
		Email:        email,
		PasswordHash: digest,
		IsActive:     true,
		Role:         role,
	}
	err = a.store.insert(ctx, p)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Login verifies the credential pair and issues a token whose scopes are
// computed from the principal's role at this moment. Unknown email and
// wrong password return the identical ErrInvalidCredentials. The active
// flag is deliberately not consulted here; inactive principals can still
// log in but every account-gated request rejects them afterwards.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, error) {
	p, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if p == nil {
		VerifyPassword(password, decoyDigest)
		return "", ErrInvalidCredentials
	}
	if !VerifyPassword(password, p.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return a.codec.Issue(p.Email, p.Role.Scopes())
}
