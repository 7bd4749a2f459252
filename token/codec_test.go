package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-identity-server/token"
)

const testSecret = "test-signing-secret"

func newTestCodec() *token.Codec {
	return token.NewCodec(token.NewHMACSigner(testSecret), time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	codec := newTestCodec()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	raw, err := codec.Issue("user-1", now)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	userID, err := codec.Verify(raw, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestVerifyExpired(t *testing.T) {
	codec := newTestCodec()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	raw, err := codec.Issue("user-1", now)
	require.NoError(t, err)

	// Exactly at expiry is already invalid.
	_, err = codec.Verify(raw, now.Add(time.Hour))
	require.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = codec.Verify(raw, now.Add(2*time.Hour))
	require.ErrorIs(t, err, token.ErrInvalidToken)

	// One second before expiry is still valid.
	userID, err := codec.Verify(raw, now.Add(time.Hour-time.Second))
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestVerifyTamperedToken(t *testing.T) {
	codec := newTestCodec()
	now := time.Now()

	raw, err := codec.Issue("user-1", now)
	require.NoError(t, err)

	// Flip a character in every segment of the token.
	for _, idx := range []int{5, len(raw) / 2, len(raw) - 2} {
		flipped := []byte(raw)
		if flipped[idx] == 'A' {
			flipped[idx] = 'B'
		} else {
			flipped[idx] = 'A'
		}
		_, err := codec.Verify(string(flipped), now)
		require.ErrorIs(t, err, token.ErrInvalidToken, "tampered at index %d", idx)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	now := time.Now()
	raw, err := newTestCodec().Issue("user-1", now)
	require.NoError(t, err)

	other := token.NewCodec(token.NewHMACSigner("a-different-secret"), time.Hour)
	_, err = other.Verify(raw, now)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerifyGarbageInput(t *testing.T) {
	codec := newTestCodec()
	now := time.Now()

	for _, raw := range []string{"", "not-a-token", "a.b.c", strings.Repeat("x", 4096)} {
		_, err := codec.Verify(raw, now)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	}
}

func TestVerifyRejectsUnsignedAlg(t *testing.T) {
	codec := newTestCodec()

	// alg=none token with a valid-looking payload.
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ1c2VyLTEiLCJleHAiOjQ4NzA1NDg4MDB9."
	_, err := codec.Verify(unsigned, time.Now())
	require.ErrorIs(t, err, token.ErrInvalidToken)
}
