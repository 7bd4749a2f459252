// Package refresh manages the long-lived, single-use refresh tokens that
// mint new access tokens. Plaintext values are returned to the caller
// exactly once; only hashes are persisted.
package refresh

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/jrsteele09/go-identity-server/internal/config"
)

// ErrTokenInvalid is returned by Redeem for any token that cannot be
// redeemed: unknown, already used, past its rolling expiry, or past the
// chain ceiling. The caller cannot distinguish these cases.
var ErrTokenInvalid = errors.New("invalid refresh token")

// SessionMetadata is the non-sensitive view of a stored refresh token,
// exposed to the data-export collaborator. It never includes the token
// value or its hash.
type SessionMetadata struct {
	Device    string    `json:"device,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager handles refresh token creation, redemption, and revocation.
// Rotation is a two-step protocol: Redeem deletes the old record and returns
// its metadata, and the caller decides whether to Issue a replacement. The
// store stays free of issuance policy.
type Manager struct {
	repo   Repo
	config config.AuthConfig
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.AuthConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// HashToken returns the hex-encoded SHA-256 of a plaintext token. The hash
// is the storage key; the plaintext is never persisted.
func HashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Issue generates a new refresh token for userID and stores its record.
// chainExpiresAt anchors the absolute ceiling: pass the zero time on a fresh
// login to start a new chain, or the redeemed record's ChainExpiresAt when
// rotating, so the ceiling is never extended by rotation.
func (m *Manager) Issue(ctx context.Context, userID, device string, chainExpiresAt, now time.Time) (string, *StoredRefreshToken, error) {
	tokenBytes := make([]byte, m.config.GetRefreshTokenLength()) // Configured length (default: 32 bytes = 256 bits)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", nil, pkgerrors.Wrap(err, "[Manager.Issue] rand.Read")
	}
	plaintext := hex.EncodeToString(tokenBytes)

	if chainExpiresAt.IsZero() {
		chainExpiresAt = now.Add(m.config.GetRefreshTokenChainCeiling())
	}

	record := &StoredRefreshToken{
		TokenHash:      HashToken(plaintext),
		UserID:         userID,
		Device:         device,
		IssuedAt:       now,
		ExpiresAt:      now.Add(m.config.GetRefreshTokenRollingExpiry()),
		ChainExpiresAt: chainExpiresAt,
	}

	if err := m.repo.Insert(ctx, record); err != nil {
		return "", nil, pkgerrors.Wrap(err, "[Manager.Issue] repo.Insert")
	}
	return plaintext, record, nil
}

// Redeem consumes a refresh token. The record is removed atomically before
// any expiry check, so an expired or stolen token dies on first presentation
// and a concurrent replay of the same plaintext finds nothing. On success
// the caller must Issue a replacement; rotation is not optional.
func (m *Manager) Redeem(ctx context.Context, plaintext string, now time.Time) (*StoredRefreshToken, error) {
	record, err := m.repo.TakeByHash(ctx, HashToken(plaintext))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, pkgerrors.Wrap(err, "[Manager.Redeem] repo.TakeByHash")
	}
	if !now.Before(record.ExpiresAt) || !now.Before(record.ChainExpiresAt) {
		return nil, ErrTokenInvalid
	}
	return record, nil
}

// Revoke deletes the record for a plaintext token. Revoking an unknown
// token is not an error.
func (m *Manager) Revoke(ctx context.Context, plaintext string) error {
	if err := m.repo.DeleteByHash(ctx, HashToken(plaintext)); err != nil && !errors.Is(err, ErrTokenNotFound) {
		return pkgerrors.Wrap(err, "[Manager.Revoke] repo.DeleteByHash")
	}
	return nil
}

// RevokeAll deletes every refresh token owned by userID ("log out everywhere").
func (m *Manager) RevokeAll(ctx context.Context, userID string) error {
	if err := m.repo.DeleteByUserID(ctx, userID); err != nil {
		return pkgerrors.Wrap(err, "[Manager.RevokeAll] repo.DeleteByUserID")
	}
	return nil
}

// Sessions lists non-sensitive metadata for the user's live refresh tokens.
func (m *Manager) Sessions(ctx context.Context, userID string) ([]SessionMetadata, error) {
	records, err := m.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Manager.Sessions] repo.ListByUserID")
	}
	sessions := make([]SessionMetadata, 0, len(records))
	for _, r := range records {
		sessions = append(sessions, SessionMetadata{
			Device:    r.Device,
			IssuedAt:  r.IssuedAt,
			ExpiresAt: r.ExpiresAt,
		})
	}
	return sessions, nil
}
