package api

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/nmoram/newsdesk/auth"
	"github.com/nmoram/newsdesk/internal/logutil"
)

type (
	// Realm guards sensitive handlers behind bearer authentication and
	// scope checks, and exposes the credential endpoints themselves.
	Realm struct {
		authn *auth.Authenticator
		authz *auth.Authorizer
	}

	principalKey byte
)

var (
	bearerTokenRE = regexp.MustCompile(`^Bearer ([^\s]+)$`)

	principalCtxKey = principalKey(1)
)

func NewRealm(authn *auth.Authenticator, authz *auth.Authorizer) *Realm {
	return &Realm{authn: authn, authz: authz}
}

// Protect wraps sensitive so it only runs for requests presenting a valid
// bearer token for an active principal carrying every required scope. The
// ladder is fixed: decode, re-resolve the principal, check scopes, check
// the active flag. The admitted principal is placed in the request context.
//
// Unauthenticated and insufficient-scope both answer 401 with a
// WWW-Authenticate challenge; an inactive account answers 400.
func (s *Realm) Protect(required []string, sensitive httprouter.Handle) httprouter.Handle {
	challenge := "Bearer"
	if len(required) > 0 {
		challenge = `Bearer scope="` + strings.Join(required, " ") + `"`
	}
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		ctx := r.Context()
		log := logutil.Acquire(ctx, "auth.api")
		token, ok := bearerToken(r)
		if !ok {
			writeChallenge(w, challenge)
			return
		}
		p, claims, err := s.authz.Authenticate(ctx, token)
		if errors.Is(err, auth.ErrUnauthenticated) {
			log.Debug().Err(err).Msg("Rejecting token")
			writeChallenge(w, challenge)
			return
		} else if err != nil {
			log.Error().Err(err).Msg("Unexpected error while resolving principal")
			writeError(w, http.StatusInternalServerError, "unable to process request")
			return
		}
		err = s.authz.Authorize(claims, required)
		if err != nil {
			log.Debug().Str("principal", p.Email).Msg("Not enough permissions")
			writeChallenge(w, challenge)
			return
		}
		err = s.authz.RequireActive(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Inactive user")
			return
		}
		sensitive(w, r.WithContext(WithPrincipal(ctx, p)), params)
	}
}

// WithPrincipal stores the admitted principal in ctx.
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// PrincipalFrom returns the principal admitted by Protect, or nil when the
// request did not pass through it.
func PrincipalFrom(ctx context.Context) *auth.Principal {
	v := ctx.Value(principalCtxKey)
	if v == nil {
		return nil
	}
	return v.(*auth.Principal)
}

func bearerToken(r *http.Request) (string, bool) {
	groups := bearerTokenRE.FindStringSubmatch(r.Header.Get("Authorization"))
	if len(groups) == 0 {
		return "", false
	}
	return groups[1], true
}

func writeChallenge(w http.ResponseWriter, challenge string) {
	w.Header().Set("WWW-Authenticate", challenge)
	writeError(w, http.StatusUnauthorized, "Could not validate credentials")
}
