package domain

import "time"

// TokenPair is what login and refresh hand back to the transport.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RefreshRecord is the stored counterpart of one issued refresh token.
// ID equals the token's jti. RevokedAt is set at most once and never cleared.
type RefreshRecord struct {
	ID          string
	AccountID   string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	RotatedFrom string // jti of the predecessor, empty for a fresh login
	UserAgent   string
	IP          string
}

// Active reports whether the record is neither revoked nor expired at now.
func (r RefreshRecord) Active(now time.Time) bool {
	return r.RevokedAt == nil && now.Before(r.ExpiresAt)
}

// ClientMeta describes the client presenting credentials.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// Bounds applied before persisting ClientMeta.
const (
	MaxUserAgentLength = 255
	MaxIPLength        = 64
)

// Truncated clips both fields to their column limits.
func (m ClientMeta) Truncated() ClientMeta {
	return ClientMeta{
		UserAgent: truncate(m.UserAgent, MaxUserAgentLength),
		IP:        truncate(m.IP, MaxIPLength),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// back off to a rune boundary
	for n > 0 && (s[n]&0xC0) == 0x80 {
		n--
	}
	return s[:n]
}
