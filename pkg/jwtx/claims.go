package jwtx

import (
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token lifetimes.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Kind distinguishes access tokens from refresh tokens. It travels in the
// "typ" claim and each kind is signed with its own secret.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the payload of every session token: sub, jti, typ, iat and exp.
type Claims struct {
	jwt.RegisteredClaims

	Type Kind `json:"typ"`
}

// NewClaims builds claims for subject with a fresh token id. Timestamps are
// filled in by Codec.Encode.
func NewClaims(subject string, kind Kind) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
			ID:      NewJTI(),
		},
		Type: kind,
	}
}

// NewJTI returns a random 128-bit token id as 32 lowercase hex characters.
func NewJTI() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// IssuedAtTime returns iat in UTC, or the zero time.
func (c Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.UTC()
}

// ExpiresAtTime returns exp in UTC, or the zero time.
func (c Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.UTC()
}
