// Package auth is the credential and access-control core of newsdesk.
//
// It is deliberately small: a memory-hard password hasher, a codec for
// signed expiring bearer tokens, a principal store on sqlite, an
// authenticator that trades a credential pair for a token, and an
// authorizer that walks every request through decode, principal
// re-resolution, a scope check and an active-flag check.
//
// Tokens are bearer-only and self-contained. There is no session table
// and no revocation list, so a token stays good until its expiry even
// across process restarts. Two consequences follow and are part of the
// contract rather than bugs:
//
//   - scopes are checked against what the token carries, so a role
//     downgrade only takes effect once outstanding tokens expire;
//   - a principal deleted after issuance stops authenticating on the
//     next request, because the authorizer always re-resolves the
//     subject against the store.
//
// The signing secret is process-wide immutable configuration, read from
// the environment at startup and wiped right after. Nothing in this
// package ever holds a plaintext password beyond the call that hashes
// or verifies it.
package auth
