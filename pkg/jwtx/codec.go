package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed        = errors.New("jwtx: malformed token")
	ErrInvalidSignature = errors.New("jwtx: invalid signature")
	ErrExpired          = errors.New("jwtx: token expired")
	ErrNoKey            = errors.New("jwtx: empty signing key")
)

// Codec signs and verifies HS256 session tokens. The zero value uses the
// system clock; tests inject their own through Clock.
type Codec struct {
	Clock func() time.Time
}

// NewCodec returns a Codec reading time from clock, or time.Now when nil.
func NewCodec(clock func() time.Time) *Codec {
	return &Codec{Clock: clock}
}

// Now returns the codec's current time in UTC, truncated to whole seconds
// since token timestamps carry no finer resolution.
func (c *Codec) Now() time.Time {
	now := time.Now
	if c != nil && c.Clock != nil {
		now = c.Clock
	}
	return now().UTC().Truncate(time.Second)
}

// Encode stamps iat=now and exp=now+ttl onto claims and signs them with key.
func (c *Codec) Encode(claims Claims, key []byte, ttl time.Duration) (string, error) {
	if len(key) == 0 {
		return "", ErrNoKey
	}
	if ttl <= 0 {
		return "", fmt.Errorf("jwtx: ttl must be positive, got %s", ttl)
	}

	now := c.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature of token against key, then its expiry.
// Failures are one of ErrInvalidSignature, ErrExpired or ErrMalformed.
// A token signed with any other key, or with any algorithm other than
// HS256, reports ErrInvalidSignature even when it has also expired.
func (c *Codec) Decode(token string, key []byte) (Claims, error) {
	if len(key) == 0 {
		return Claims{}, ErrNoKey
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.Now),
		jwt.WithExpirationRequired(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, fmt.Errorf("%w: %w", ErrExpired, err)
		default:
			return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}

	if claims.Subject == "" || claims.ID == "" || claims.Type == "" || claims.IssuedAt == nil {
		return Claims{}, fmt.Errorf("%w: missing required claim", ErrMalformed)
	}

	return claims, nil
}
