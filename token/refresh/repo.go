package refresh

import (
	"context"
	"errors"
	"time"
)

// ErrTokenNotFound is returned by repository lookups when no record matches
// the given hash.
var ErrTokenNotFound = errors.New("refresh token not found")

// StoredRefreshToken is the server-side record of a refresh token. The client
// only ever holds the plaintext value; the store keeps its one-way hash plus
// the metadata needed to validate a redemption.
type StoredRefreshToken struct {
	TokenHash      string    // SHA-256 of the plaintext token, hex encoded
	UserID         string    // Owning user
	Device         string    // Optional device descriptor supplied at login
	IssuedAt       time.Time // When this particular token was created
	ExpiresAt      time.Time // Rolling expiry, extended by each rotation
	ChainExpiresAt time.Time // Hard ceiling from the start of the session chain, never extended
}

// Repo manages server-side storage of refresh token records, keyed by token
// hash. TakeByHash is the anti-replay primitive: the lookup and the delete
// happen as one atomic operation, so two concurrent redemptions of the same
// token can never both observe the record.
type Repo interface {
	Insert(ctx context.Context, record *StoredRefreshToken) error
	TakeByHash(ctx context.Context, tokenHash string) (*StoredRefreshToken, error)
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteByUserID(ctx context.Context, userID string) error
	ListByUserID(ctx context.Context, userID string) ([]*StoredRefreshToken, error)
}
