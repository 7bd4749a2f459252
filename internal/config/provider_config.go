package config

import "time"

// ProviderConfig describes the external OAuth 2.0 / OIDC identity provider
// used for third-party login.
type ProviderConfig interface {
	GetProviderName() string
	GetProviderIssuerURL() string
	GetProviderClientID() string
	GetProviderClientSecret() string
	GetProviderRedirectURL() string
	GetProviderTimeout() time.Duration
}

type Provider struct{}

var _ ProviderConfig = Provider{}

func (Provider) GetProviderName() string {
	return GetEnv("OAUTH_PROVIDER_NAME", "oidc")
}

func (Provider) GetProviderIssuerURL() string {
	return GetEnv("OAUTH_ISSUER_URL", "")
}

func (Provider) GetProviderClientID() string {
	return GetEnv("OAUTH_CLIENT_ID", "")
}

func (Provider) GetProviderClientSecret() string {
	return GetEnv("OAUTH_CLIENT_SECRET", "")
}

func (Provider) GetProviderRedirectURL() string {
	return GetEnv("OAUTH_REDIRECT_URL", "")
}

// GetProviderTimeout bounds every network round-trip to the provider so an
// outage cannot hang an in-flight login.
func (Provider) GetProviderTimeout() time.Duration {
	return 10 * time.Second
}
