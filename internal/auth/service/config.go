package service

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/notesauth/pkg/jwtx"
)

// DefaultStoreTimeout bounds a single storage call or transaction.
const DefaultStoreTimeout = 5 * time.Second

// TokenConfig holds the signing secrets and lifetimes. It is built once at
// startup and never mutated.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Validate requires two distinct, non-empty secrets and positive lifetimes.
func (c TokenConfig) Validate() error {
	if len(c.AccessSecret) == 0 || len(c.RefreshSecret) == 0 {
		return errors.New("token config: access and refresh secrets are required")
	}
	if bytes.Equal(c.AccessSecret, c.RefreshSecret) {
		return errors.New("token config: access and refresh secrets must differ")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("token config: lifetimes must be positive")
	}
	return nil
}

func (c TokenConfig) secret(kind jwtx.Kind) []byte {
	if kind == jwtx.KindRefresh {
		return c.RefreshSecret
	}
	return c.AccessSecret
}

func (c TokenConfig) ttl(kind jwtx.Kind) time.Duration {
	if kind == jwtx.KindRefresh {
		return c.RefreshTTL
	}
	return c.AccessTTL
}

func storeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
