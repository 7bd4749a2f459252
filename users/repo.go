package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepo manages persistent user records. Emails passed in are expected to
// be normalized via NormalizeEmail.
type UserRepo interface {
	Create(ctx context.Context, user *User) error // ErrEmailTaken on duplicate email
	Update(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByProvider(ctx context.Context, providerName, subject string) (*User, error)
	LinkProvider(ctx context.Context, userID string, identity ProviderIdentity) error
}
