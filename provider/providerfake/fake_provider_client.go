package providerfake

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-identity-server/provider"
)

var _ provider.Client = (*FakeProviderClient)(nil)

// FakeProviderClient fakes the external identity provider for orchestrator
// tests. It records the PKCE verifier and nonce handed to AuthCodeURL and
// enforces that Exchange presents the same pair with the expected code.
type FakeProviderClient struct {
	ProviderName string
	Code         string           // Authorization code the fake will accept
	Claims       *provider.Claims // Claims returned on a successful exchange
	Err          error            // Forced error returned by Exchange

	LastState    string
	LastVerifier string
	LastNonce    string
}

func NewFakeProviderClient(code string, claims *provider.Claims) *FakeProviderClient {
	return &FakeProviderClient{
		ProviderName: "fakeidp",
		Code:         code,
		Claims:       claims,
	}
}

func (f *FakeProviderClient) Name() string {
	return f.ProviderName
}

func (f *FakeProviderClient) AuthCodeURL(state, verifier, nonce string) string {
	f.LastState = state
	f.LastVerifier = verifier
	f.LastNonce = nonce
	return fmt.Sprintf("https://idp.example.com/authorize?state=%s", state)
}

func (f *FakeProviderClient) Exchange(_ context.Context, code, verifier, nonce string) (*provider.Claims, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if code != f.Code || verifier != f.LastVerifier || nonce != f.LastNonce {
		return nil, provider.ErrExchangeFailed
	}
	return f.Claims, nil
}
