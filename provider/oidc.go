package provider

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-identity-server/internal/config"
)

var _ Client = (*OIDCClient)(nil)

// OIDCClient implements Client against any OIDC-compliant provider using
// discovery. Construction performs the discovery round-trip; after that the
// client is immutable and safe for concurrent use.
type OIDCClient struct {
	name         string
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	timeout      time.Duration
}

// NewOIDCClient discovers the provider's endpoints and builds the client.
func NewOIDCClient(ctx context.Context, cfg config.ProviderConfig) (*OIDCClient, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.GetProviderTimeout())
	defer cancel()

	oidcProvider, err := oidc.NewProvider(ctx, cfg.GetProviderIssuerURL())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[NewOIDCClient] provider discovery")
	}

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.GetProviderClientID(),
		ClientSecret: cfg.GetProviderClientSecret(),
		RedirectURL:  cfg.GetProviderRedirectURL(),
		Endpoint:     oidcProvider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &OIDCClient{
		name:         cfg.GetProviderName(),
		oauth2Config: oauth2Config,
		verifier:     oidcProvider.Verifier(&oidc.Config{ClientID: cfg.GetProviderClientID()}),
		timeout:      cfg.GetProviderTimeout(),
	}, nil
}

func (c *OIDCClient) Name() string {
	return c.name
}

func (c *OIDCClient) AuthCodeURL(state, verifier, nonce string) string {
	return c.oauth2Config.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oidc.Nonce(nonce),
	)
}

func (c *OIDCClient) Exchange(ctx context.Context, code, verifier, nonce string) (*Claims, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	oauth2Token, err := c.oauth2Config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		if isNetworkErr(err) {
			return nil, ErrUnavailable
		}
		return nil, ErrExchangeFailed
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, ErrExchangeFailed
	}

	// Verify the ID token signature and claims before trusting anything in it.
	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		if isNetworkErr(err) {
			return nil, ErrUnavailable
		}
		return nil, ErrExchangeFailed
	}

	var claims struct {
		Nonce         string `json:"nonce"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, ErrExchangeFailed
	}

	// Nonce must round-trip from the authorization request; a mismatch is a
	// replayed or substituted token.
	if claims.Nonce != nonce {
		return nil, ErrExchangeFailed
	}

	return &Claims{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		EmailVerified: claims.EmailVerified,
	}, nil
}

func isNetworkErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
