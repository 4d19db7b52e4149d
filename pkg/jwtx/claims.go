package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when a bearer token cannot be decoded as a JWT.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrNoExpiry is returned when a token carries no exp claim.
	ErrNoExpiry = errors.New("jwtx: token has no expiry")
)

// Attrs are the proxy manager's custom attributes embedded in every token.
type Attrs struct {
	ID int64 `json:"id"`
}

// Claims are the claims the proxy manager puts into the bearer tokens it issues
// from /api/tokens. Only the fields the client acts on are modelled.
type Claims struct {
	jwt.RegisteredClaims

	// Attrs identifies the authenticated user
	Attrs Attrs `json:"attrs"`
}

// ParseUnverified decodes the token's claims without checking the signature.
// The client never holds the server's signing key, so the claims are only used
// as hints (expiry and user id), never for authorization decisions.
func ParseUnverified(token string) (*Claims, error) {
	var claims Claims

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &claims, nil
}

// Expiry returns the exp claim as a UTC time.
func (c *Claims) Expiry() (time.Time, error) {
	if c.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return c.ExpiresAt.UTC(), nil
}
