// Package identity is the session orchestrator: it composes the credential
// verifier, token codec, refresh token store, ephemeral exchange store, and
// external provider client into the register, login, refresh, logout, and
// OAuth login flows.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/mail"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-identity-server/exchange"
	"github.com/jrsteele09/go-identity-server/internal/config"
	"github.com/jrsteele09/go-identity-server/provider"
	"github.com/jrsteele09/go-identity-server/token"
	"github.com/jrsteele09/go-identity-server/token/refresh"
	"github.com/jrsteele09/go-identity-server/users"
)

const (
	stateTokenLength  = 32
	nonceLength       = 16
	maxDisplayNameLen = 100
	defaultRedirect   = "/"
)

// Session is the result of every successful authentication flow.
type Session struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *users.User `json:"user,omitempty"`
	RedirectURL  string      `json:"redirect_url,omitempty"`
}

// RegisterParams are the inputs to Register.
type RegisterParams struct {
	Email       string
	DisplayName string
	Password    string
	Device      string
}

// Repos holds the repository dependencies for the Service
type Repos struct {
	Users users.UserRepo
}

// Service orchestrates the session lifecycle. All mutation goes through the
// stores' atomic primitives; the service itself holds no locks.
type Service struct {
	repos    Repos
	codec    *token.Codec
	refresh  *refresh.Manager
	exchange exchange.Store
	provider provider.Client
	config   config.AuthConfig
	log      zerolog.Logger
	nowTime  func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(
	repos Repos,
	codec *token.Codec,
	refreshManager *refresh.Manager,
	exchangeStore exchange.Store,
	providerClient provider.Client,
	cfg config.AuthConfig,
	log zerolog.Logger,
	options ...ServiceOption,
) (*Service, error) {
	if repos.Users == nil {
		return nil, pkgerrors.New("[NewService] Users repo is required")
	}
	if codec == nil {
		return nil, pkgerrors.New("[NewService] token codec is required")
	}
	if refreshManager == nil {
		return nil, pkgerrors.New("[NewService] refresh manager is required")
	}
	if exchangeStore == nil {
		return nil, pkgerrors.New("[NewService] exchange store is required")
	}
	if providerClient == nil {
		return nil, pkgerrors.New("[NewService] provider client is required")
	}

	service := &Service{
		repos:    repos,
		codec:    codec,
		refresh:  refreshManager,
		exchange: exchangeStore,
		provider: providerClient,
		config:   cfg,
		log:      log,
		nowTime:  time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Register creates a user with a password credential and logs them in.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Session, error) {
	email := users.NormalizeEmail(params.Email)
	if err := validateRegistration(email, params.DisplayName, params.Password); err != nil {
		return nil, ErrInvalidRequest
	}

	passwordHash, err := users.HashPassword(params.Password, s.config.GetBcryptCost())
	if err != nil {
		return nil, s.collapseError("Register", err)
	}

	id, err := users.NewID()
	if err != nil {
		return nil, s.collapseError("Register", err)
	}

	user := &users.User{
		ID:           id,
		Email:        email,
		DisplayName:  strings.TrimSpace(params.DisplayName),
		PasswordHash: passwordHash,
		Roles:        []users.RoleType{users.RoleUser},
		Active:       true,
		CreatedAt:    s.nowTime(),
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, s.collapseError("Register", err)
	}

	session, err := s.issueSession(ctx, user, params.Device, time.Time{})
	if err != nil {
		return nil, s.collapseError("Register", err)
	}
	return session, nil
}

// Login verifies a password credential and issues a token pair. Every
// credential failure, unknown email included, collapses to ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password, device string) (*Session, error) {
	user, err := s.repos.Users.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		return nil, s.collapseError("Login", err)
	}
	if !user.Active || !user.HasPassword() || !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrUnauthorized
	}

	session, err := s.issueSession(ctx, user, device, time.Time{})
	if err != nil {
		return nil, s.collapseError("Login", err)
	}
	return session, nil
}

// Refresh redeems a refresh token and rotates it. The new refresh token
// keeps the old record's device tag and chain ceiling.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	record, err := s.refresh.Redeem(ctx, refreshToken, s.nowTime())
	if err != nil {
		return nil, s.collapseError("Refresh", err)
	}

	user, err := s.repos.Users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, s.collapseError("Refresh", err)
	}
	if !user.Active {
		return nil, ErrUnauthorized
	}

	session, err := s.issueSession(ctx, user, record.Device, record.ChainExpiresAt)
	if err != nil {
		return nil, s.collapseError("Refresh", err)
	}
	return session, nil
}

// Logout revokes a single refresh token. Revoking an already-absent token
// succeeds.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		return s.collapseError("Logout", err)
	}
	return nil
}

// LogoutAll revokes every refresh token the user owns.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.refresh.RevokeAll(ctx, userID); err != nil {
		return s.collapseError("LogoutAll", err)
	}
	return nil
}

// Authenticate verifies a raw access token and returns the subject user ID.
func (s *Service) Authenticate(rawToken string) (string, error) {
	userID, err := s.codec.Verify(rawToken, s.nowTime())
	if err != nil {
		return "", ErrUnauthorized
	}
	return userID, nil
}

// Sessions lists non-sensitive metadata for the user's live sessions. This
// is the surface consumed by the data-export collaborator.
func (s *Service) Sessions(ctx context.Context, userID string) ([]refresh.SessionMetadata, error) {
	sessions, err := s.refresh.Sessions(ctx, userID)
	if err != nil {
		return nil, s.collapseError("Sessions", err)
	}
	return sessions, nil
}

// OAuthBegin starts a third-party login: it generates the CSRF state, PKCE
// verifier, and nonce, stores them as one ephemeral record, and returns the
// provider's authorization URL. An unsafe redirect is silently dropped.
func (s *Service) OAuthBegin(ctx context.Context, redirect string) (string, error) {
	state, err := randomToken(stateTokenLength)
	if err != nil {
		return "", s.collapseError("OAuthBegin", err)
	}
	nonce, err := randomToken(nonceLength)
	if err != nil {
		return "", s.collapseError("OAuthBegin", err)
	}
	verifier := oauth2.GenerateVerifier()

	record := exchange.Record{
		Verifier: verifier,
		Nonce:    nonce,
		Redirect: SanitizeRedirect(redirect),
	}
	if err := s.exchange.Put(ctx, state, record, s.config.GetExchangeStateTTL()); err != nil {
		return "", s.collapseError("OAuthBegin", err)
	}

	return s.provider.AuthCodeURL(state, verifier, nonce), nil
}

// OAuthCallback finishes a third-party login. The exchange record is
// consumed exactly once whatever the outcome; a second callback with the
// same state fails like any tampered or expired one.
func (s *Service) OAuthCallback(ctx context.Context, code, state, device string) (*Session, error) {
	if code == "" || state == "" {
		return nil, ErrInvalidRequest
	}

	record, err := s.exchange.Take(ctx, state)
	if err != nil {
		return nil, s.collapseError("OAuthCallback", err)
	}

	claims, err := s.provider.Exchange(ctx, code, record.Verifier, record.Nonce)
	if err != nil {
		return nil, s.collapseError("OAuthCallback", err)
	}

	user, err := s.resolveProviderUser(ctx, claims)
	if err != nil {
		return nil, s.collapseError("OAuthCallback", err)
	}
	if !user.Active {
		return nil, ErrUnauthorized
	}

	session, err := s.issueSession(ctx, user, device, time.Time{})
	if err != nil {
		return nil, s.collapseError("OAuthCallback", err)
	}
	session.RedirectURL = record.Redirect
	if session.RedirectURL == "" {
		session.RedirectURL = defaultRedirect
	}
	return session, nil
}

// resolveProviderUser maps verified provider claims to a local user:
// a linked identity wins, then an email match (which links the identity),
// and otherwise a fresh account is created.
func (s *Service) resolveProviderUser(ctx context.Context, claims *provider.Claims) (*users.User, error) {
	user, err := s.repos.Users.GetByProvider(ctx, s.provider.Name(), claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, err
	}

	identity := users.ProviderIdentity{
		Provider: s.provider.Name(),
		Subject:  claims.Subject,
		LinkedAt: s.nowTime(),
	}

	email := users.NormalizeEmail(claims.Email)
	if email != "" {
		user, err = s.repos.Users.GetByEmail(ctx, email)
		if err == nil {
			if err := s.repos.Users.LinkProvider(ctx, user.ID, identity); err != nil {
				return nil, err
			}
			user.Providers = append(user.Providers, identity)
			return user, nil
		}
		if !errors.Is(err, users.ErrNotFound) {
			return nil, err
		}
	}

	id, err := users.NewID()
	if err != nil {
		return nil, err
	}
	user = &users.User{
		ID:            id,
		Email:         email,
		DisplayName:   claims.Name,
		Roles:         []users.RoleType{users.RoleUser},
		Providers:     []users.ProviderIdentity{identity},
		Active:        true,
		EmailVerified: claims.EmailVerified,
		CreatedAt:     s.nowTime(),
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// issueSession is the shared post-authentication step: one access token and
// one refresh token. chainExpiresAt is zero for a fresh login and carries
// the old ceiling on rotation.
func (s *Service) issueSession(ctx context.Context, user *users.User, device string, chainExpiresAt time.Time) (*Session, error) {
	now := s.nowTime()

	accessToken, err := s.codec.Issue(user.ID, now)
	if err != nil {
		return nil, err
	}

	refreshToken, _, err := s.refresh.Issue(ctx, user.ID, device, chainExpiresAt, now)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// collapseError is the single translation point from component errors to
// the client taxonomy. Authentication-decision failures become the generic
// ErrUnauthorized regardless of root cause; anything unexpected is logged
// server-side and surfaces as an opaque ErrInternal.
func (s *Service) collapseError(op string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrUpstreamUnavailable):
		return err
	case errors.Is(err, users.ErrEmailTaken):
		return ErrConflict
	case errors.Is(err, users.ErrNotFound),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, refresh.ErrTokenInvalid),
		errors.Is(err, exchange.ErrStateNotFound),
		errors.Is(err, provider.ErrExchangeFailed):
		return ErrUnauthorized
	case errors.Is(err, provider.ErrUnavailable):
		return ErrUpstreamUnavailable
	default:
		s.log.Error().Str("op", op).Err(err).Msg("identity operation failed")
		return ErrInternal
	}
}

// SanitizeRedirect accepts only site-relative redirect targets: the value
// must start with a single "/". Anything else, protocol-relative "//host"
// URLs included, is dropped rather than rejected.
func SanitizeRedirect(redirect string) string {
	if strings.HasPrefix(redirect, "/") && !strings.HasPrefix(redirect, "//") {
		return redirect
	}
	return ""
}

func validateRegistration(email, displayName, password string) error {
	if email == "" {
		return pkgerrors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return pkgerrors.Wrap(err, "invalid email")
	}
	if len(displayName) > maxDisplayNameLen {
		return pkgerrors.New("display name too long")
	}
	return users.ValidatePasswordStrength(password)
}

func randomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", pkgerrors.Wrap(err, "randomToken rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
