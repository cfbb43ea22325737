package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateIdentity indicates a registration against an email that
	// already has a principal.
	ErrDuplicateIdentity = errors.New("email already registered")

	// ErrInvalidCredentials is returned for a failed login. Missing
	// principal and wrong password map to this same value on purpose, so
	// callers cannot enumerate registered emails.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrTokenInvalid covers any token that fails signature or structural
	// validation.
	ErrTokenInvalid = errors.New("token is not valid")

	// ErrTokenExpired covers a well-formed, correctly signed token whose
	// expiry has lapsed.
	ErrTokenExpired = errors.New("token is expired")

	// ErrUnauthenticated is the single outcome surfaced at the API
	// boundary for any token or principal resolution failure.
	ErrUnauthenticated = errors.New("could not validate credentials")

	// ErrInactiveAccount rejects principals whose active flag was cleared.
	ErrInactiveAccount = errors.New("inactive user")

	// ErrInsufficientScope rejects tokens missing a required scope.
	ErrInsufficientScope = errors.New("not enough permissions")
)

type (
	// Unauthenticated wraps the internal cause of an authentication
	// failure. errors.Is matches it against ErrUnauthenticated, while the
	// cause (ErrTokenInvalid, ErrTokenExpired, ...) stays reachable via
	// errors.Is/Unwrap for logs and tests.
	Unauthenticated struct {
		Cause error
	}

	// UnknownRole indicates a role outside the closed admin/user set.
	UnknownRole struct {
		Role string
	}
)

func (u Unauthenticated) Error() string {
	if u.Cause == nil {
		return ErrUnauthenticated.Error()
	}
	return fmt.Sprintf("could not validate credentials, cause %v", u.Cause)
}

func (u Unauthenticated) Unwrap() error { return u.Cause }

func (u Unauthenticated) Is(target error) bool { return target == ErrUnauthenticated }

func (u UnknownRole) Error() string {
	return fmt.Sprintf("unknown role %v", u.Role)
}
