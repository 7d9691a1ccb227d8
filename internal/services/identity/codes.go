package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crawdale/hotel/internal/db/bunx"
	"github.com/golang-jwt/jwt/v5"
)

const (
	codeIssuer   = "crawdale-hotel"
	codeAudience = "magic-link"
)

// CodeClaims are carried by a magic-link code.
type CodeClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// CodeIssuer signs and verifies magic-link codes (HS256 JWTs).
type CodeIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCodeIssuer creates an issuer with the given HMAC key and code lifetime.
func NewCodeIssuer(key string, ttl time.Duration) *CodeIssuer {
	return &CodeIssuer{key: []byte(key), ttl: ttl, now: time.Now}
}

// TTL returns the code lifetime.
func (c *CodeIssuer) TTL() time.Duration {
	return c.ttl
}

// Issue returns a signed code for email with a fresh jti.
func (c *CodeIssuer) Issue(email string) (string, *CodeClaims, error) {
	now := c.now()
	claims := &CodeClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    codeIssuer,
			Subject:   email,
			Audience:  jwt.ClaimStrings{codeAudience},
			ID:        bunx.NewUUIDv7(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", nil, fmt.Errorf("sign login code: %w", err)
	}
	return signed, claims, nil
}

// Verify checks signature, issuer, audience and expiry of a code.
func (c *CodeIssuer) Verify(code string) (*CodeClaims, error) {
	claims := &CodeClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(code), claims,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(codeIssuer),
		jwt.WithAudience(codeAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", ErrInvalidCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	if claims.ID == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing claims", ErrInvalidCode)
	}
	return claims, nil
}
