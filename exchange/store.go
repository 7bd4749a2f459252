// Package exchange defines the short-TTL store that binds an OAuth state
// token to its server-held PKCE verifier for the duration of one handshake.
package exchange

import (
	"context"
	"errors"
	"time"
)

// ErrStateNotFound is returned by Take when no record exists for the state.
// An expired record, a consumed record, and a state the server never issued
// are deliberately indistinguishable.
var ErrStateNotFound = errors.New("exchange state not found")

// Record holds everything the callback needs to finish a handshake. The
// post-login redirect lives here, inside the server-held record, rather
// than being spliced into the state string itself.
type Record struct {
	Verifier string `json:"verifier"`           // PKCE code verifier
	Nonce    string `json:"nonce"`              // OIDC nonce echoed back in the ID token
	Redirect string `json:"redirect,omitempty"` // Validated post-login redirect target
}

// Store is a one-shot key-value store keyed by the CSRF state token.
// Take is an atomic get-and-delete: a record can be observed at most once.
type Store interface {
	Put(ctx context.Context, state string, record Record, ttl time.Duration) error
	Take(ctx context.Context, state string) (*Record, error)
}
