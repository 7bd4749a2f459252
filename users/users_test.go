package users_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/go-identity-server/users"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := users.HashPassword("Secr3tPass1", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "Secr3tPass1", hash)
	require.True(t, users.CheckPasswordHash("Secr3tPass1", hash))
	require.False(t, users.CheckPasswordHash("WrongPass1", hash))
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "alice@example.com", users.NormalizeEmail("Alice@EXAMPLE.com"))
	require.Equal(t, "alice@example.com", users.NormalizeEmail("  alice@example.com  "))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Secr3tPass1", false},
		{"too short", "Ab1x", true},
		{"no uppercase", "secr3tpass1", true},
		{"no lowercase", "SECR3TPASS1", true},
		{"no digit", "SecretPassword", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tc.password)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewID(t *testing.T) {
	a, err := users.NewID()
	require.NoError(t, err)
	b, err := users.NewID()
	require.NoError(t, err)
	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}

func TestUserHelpers(t *testing.T) {
	user := &users.User{
		Email: "alice@example.com",
		Roles: []users.RoleType{users.RoleUser},
		Providers: []users.ProviderIdentity{
			{Provider: "google", Subject: "sub-1", LinkedAt: time.Now()},
		},
	}

	require.False(t, user.HasPassword())
	user.PasswordHash = "hash"
	require.True(t, user.HasPassword())

	require.True(t, user.HasRole(users.RoleUser))
	require.False(t, user.HasRole(users.RoleAdmin))

	require.NotNil(t, user.ProviderIdentity("google"))
	require.Nil(t, user.ProviderIdentity("github"))
}
