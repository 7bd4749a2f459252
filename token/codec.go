// Package token issues and verifies the short-lived access tokens handed out
// after a successful authentication. Tokens are stateless: any holder of the
// verification key can validate one without a store lookup.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	pkgerrors "github.com/pkg/errors"
)

// ErrInvalidToken is returned by Verify for any token that cannot be
// accepted: bad signature, malformed payload, wrong algorithm, or expiry.
// Callers get no further detail on untrusted input.
var ErrInvalidToken = errors.New("invalid access token")

// Codec encodes and verifies access tokens. Claims are deliberately minimal,
// subject and expiry only, so tokens never carry mutable user attributes
// that would go stale before expiry.
type Codec struct {
	signer Signer
	expiry time.Duration
}

// NewCodec constructs a Codec with the process-wide signer and the access
// token lifetime.
func NewCodec(signer Signer, expiry time.Duration) *Codec {
	if expiry == 0 {
		expiry = time.Hour
	}
	return &Codec{signer: signer, expiry: expiry}
}

// Issue creates a signed access token for userID, expiring at now+expiry.
func (c *Codec) Issue(userID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(now.Add(c.expiry)),
	}
	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Codec.Issue] sign")
	}
	return signed, nil
}

// Expiry returns the configured access token lifetime.
func (c *Codec) Expiry() time.Duration {
	return c.expiry
}

// Verify parses and validates a raw token, returning the subject user ID.
// It fails closed: every rejection reason collapses to ErrInvalidToken.
func (c *Codec) Verify(raw string, now time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	parsed, err := parser.ParseWithClaims(raw, claims, c.signer.GetVerificationKey)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return "", ErrInvalidToken
	}
	// jwt's validator accepts now == exp; the contract here is strict.
	if !now.Before(claims.ExpiresAt.Time) {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
