package config

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type AuthConfig interface {
	GetTokenSigningSecret() string
	GetBcryptCost() int
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetRefreshTokenRollingExpiry() time.Duration
	GetRefreshTokenChainCeiling() time.Duration
	GetExchangeStateTTL() time.Duration
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetTokenSigningSecret() string {
	return GetEnv("TOKEN_SIGNING_SECRET", "")
}

func (Auth) GetBcryptCost() int {
	return bcrypt.DefaultCost + 2 // 12
}

func (Auth) GetAccessTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func (Auth) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (Auth) GetRefreshTokenRollingExpiry() time.Duration {
	return 7 * 24 * time.Hour // 7 days from the latest rotation
}

func (Auth) GetRefreshTokenChainCeiling() time.Duration {
	return 180 * 24 * time.Hour // 6 months from the original login
}

func (Auth) GetExchangeStateTTL() time.Duration {
	return 10 * time.Minute
}
