package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RoleType represents a role label attached to a user
type RoleType string

const (
	RoleAdmin RoleType = "admin" // Can manage users and service configuration
	RoleUser  RoleType = "user"  // Regular user
)

// ProviderIdentity links a user to an account at an external identity provider.
// The (Provider, Subject) pair is stable for the lifetime of the external account.
type ProviderIdentity struct {
	Provider string    `json:"provider"`
	Subject  string    `json:"subject"`
	LinkedAt time.Time `json:"linked_at"`
}

type User struct {
	ID           string    `json:"id,omitempty"`           // Unique identifier for the user (time-ordered)
	Email        string    `json:"email,omitempty"`        // User's email address, stored lower-cased
	DisplayName  string    `json:"display_name,omitempty"` // Name shown to other users
	PasswordHash string    `json:"-"`                      // Hashed version of the user's password - never serialize
	CreatedAt    time.Time `json:"created_at,omitempty"`   // Date and time when the user registered

	Roles     []RoleType         `json:"roles,omitempty"`     // Role labels
	Providers []ProviderIdentity `json:"providers,omitempty"` // Linked external provider identities

	Active        bool `json:"active,omitempty"`         // Active, can the user log in
	EmailVerified bool `json:"email_verified,omitempty"` // EmailVerified, has the user proved ownership of the email
}

// NewID returns a time-ordered unique user identifier.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("users.NewID: %w", err)
	}
	return id.String(), nil
}

// NormalizeEmail lower-cases and trims an email address so that lookups and
// the uniqueness constraint are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

// HashPassword hashes a plaintext password with bcrypt at the given cost.
// Cost is configurable so test fixtures can use bcrypt.MinCost.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash reports whether password matches the stored bcrypt hash.
// Timing safety is bcrypt's responsibility; callers must not add their own
// comparisons against the hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// HasPassword reports whether the user has a local password credential.
// OAuth-only accounts have none.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ProviderIdentity returns the linked identity for the named provider, or nil.
func (u *User) ProviderIdentity(providerName string) *ProviderIdentity {
	for i := range u.Providers {
		if u.Providers[i].Provider == providerName {
			return &u.Providers[i]
		}
	}
	return nil
}

// HasRole checks whether the user carries the given role label.
func (u *User) HasRole(role RoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
