// Package provider talks to the external OAuth 2.0 / OIDC identity provider:
// it builds the authorization URL, exchanges an authorization code for
// provider tokens, and returns the verified profile claims.
package provider

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable marks a provider network failure or timeout. The
	// attempt is safe to retry from scratch.
	ErrUnavailable = errors.New("identity provider unavailable")

	// ErrExchangeFailed marks a rejected code, verifier, nonce, or ID
	// token. Not retryable with the same inputs.
	ErrExchangeFailed = errors.New("authorization code exchange failed")
)

// Claims are the profile attributes extracted from a verified ID token.
type Claims struct {
	Subject       string // Provider-stable account identifier
	Email         string
	Name          string
	EmailVerified bool
}

// Client is the narrow contract the session orchestrator holds on the
// external provider.
type Client interface {
	// Name identifies the provider for linked-identity records.
	Name() string

	// AuthCodeURL builds the provider authorization URL for one handshake.
	// verifier is the PKCE code verifier whose S256 challenge is embedded.
	AuthCodeURL(state, verifier, nonce string) string

	// Exchange redeems an authorization code, verifies the returned ID
	// token (signature and nonce), and extracts its claims.
	Exchange(ctx context.Context, code, verifier, nonce string) (*Claims, error)
}
