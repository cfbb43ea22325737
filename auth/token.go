package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SecretEnvVar is the default environment variable holding the token
	// signing secret. The variable is wiped as soon as it is read.
	SecretEnvVar = "NEWSDESK_AUTH_SECRET"

	// DefaultTokenTTL bounds how long an issued token stays valid. Scope
	// checks run against token contents rather than the live role, so the
	// TTL is the only thing capping how long a stale grant survives.
	DefaultTokenTTL = 30 * time.Minute

	minSecretLen = 32
)

type (
	// Claims is the payload carried by every issued token: the subject
	// (principal email), the scopes granted at issuance and the standard
	// expiry claim.
	Claims struct {
		Scopes []string `json:"scopes"`
		jwt.RegisteredClaims
	}

	// Codec signs and verifies compact bearer tokens (HS256 JWTs, three
	// base64url segments joined by dots). Tokens are self-contained, no
	// server-side state survives issuance.
	Codec struct {
		secret []byte
		ttl    time.Duration
	}
)

func NewCodec(secret []byte, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Codec{secret: secret, ttl: ttl}
}

// TTL reports the fixed lifetime applied to issued tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for subject carrying the given scopes, expiring at
// now + the codec TTL.
func (c *Codec) Issue(subject string, scopes []string) (string, error) {
	return c.IssueWithTTL(subject, scopes, c.ttl)
}

// IssueWithTTL is Issue with an explicit lifetime. A zero or negative ttl
// produces an already-expired token, which Decode rejects.
func (c *Codec) IssueWithTTL(subject string, scopes []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("unable to sign token for %v, cause %w", subject, err)
	}
	return tok, nil
}

// Decode verifies the signature before trusting any claim, then checks
// expiry. Tampered or malformed input maps to ErrTokenInvalid, a lapsed
// but otherwise valid token to ErrTokenExpired. Garbage never panics.
func (c *Codec) Decode(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithStrictDecoding())
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	} else if err != nil {
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// SecretFromEnv reads the signing secret from the named environment
// variable and immediately clears it, so the secret does not leak into
// child processes or debug dumps. An absent or short secret is an error,
// there is no hardcoded fallback.
func SecretFromEnv(varname string, getfn func(string) string, setfn func(string, string) error) ([]byte, error) {
	if getfn == nil {
		getfn = os.Getenv
	}
	if setfn == nil {
		setfn = os.Setenv
	}
	val := getfn(varname)
	setfn(varname, "")
	if len(val) < minSecretLen {
		return nil, fmt.Errorf("auth: secret from %v must have at least %v bytes, got %v", varname, minSecretLen, len(val))
	}
	return []byte(val), nil
}
