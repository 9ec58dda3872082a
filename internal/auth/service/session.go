package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
	"github.com/aussiebroadwan/notesauth/internal/auth/lockout"
	"github.com/aussiebroadwan/notesauth/internal/auth/store"
	"github.com/aussiebroadwan/notesauth/pkg/cryptox"
	"github.com/aussiebroadwan/notesauth/pkg/idx"
	"github.com/aussiebroadwan/notesauth/pkg/jwtx"
	"github.com/aussiebroadwan/notesauth/pkg/slogx"
)

// Input bounds, counted in characters.
const (
	MinPasswordLength = 12
	MaxPasswordLength = 128
	MaxNameLength     = 120
	MaxEmailLength    = 254
)

// SessionService owns registration and the cookie session lifecycle:
// login, refresh rotation, logout and resolving the current user.
type SessionService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Codec  *jwtx.Codec
	Tokens TokenConfig

	// Guard throttles failed logins. Nil disables lockout.
	Guard lockout.Guard

	// StoreTimeout bounds each storage call; zero means DefaultStoreTimeout.
	StoreTimeout time.Duration
}

// Register creates an account. The email is normalized before the
// uniqueness check.
func (s *SessionService) Register(ctx context.Context, email, password, name string) (domain.Account, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if err := validateEmail(email); err != nil {
		return domain.Account{}, err
	}
	if n := utf8.RuneCountInString(password); n < MinPasswordLength || n > MaxPasswordLength {
		return domain.Account{}, invalid("password", "must be between 12 and 128 characters")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return domain.Account{}, invalid("name", "must be at most 120 characters")
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.Account{}, internalErr("hash password", err)
	}

	now := s.Codec.Now()
	account := domain.Account{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    now,
	}

	sctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	if err := s.Store.Accounts().CreateAccount(sctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrAccountExists
		}
		return domain.Account{}, internalErr("create account", err)
	}

	slogx.FromContext(ctx).Info("account registered", slog.String("account_id", account.ID))
	return account, nil
}

// Login verifies credentials and issues a fresh access/refresh pair. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *SessionService) Login(ctx context.Context, email, password string, meta domain.ClientMeta) (domain.TokenPair, domain.Account, error) {
	l := slogx.FromContext(ctx)
	email = normalizeEmail(email)
	meta = meta.Truncated()
	guard := s.guard()

	if err := guard.Check(ctx, email, meta.IP); errors.Is(err, lockout.ErrLocked) {
		l.Info("login locked out", slog.String("ip", meta.IP))
		return domain.TokenPair{}, domain.Account{}, ErrTooManyAttempts
	}

	account, err := s.lookupAccount(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.Hasher.VerifyDecoy(password)
		_ = guard.Fail(ctx, email, meta.IP)
		return domain.TokenPair{}, domain.Account{}, ErrInvalidCredentials
	case err != nil:
		return domain.TokenPair{}, domain.Account{}, internalErr("lookup account", err)
	}

	if !s.Hasher.Verify(password, account.PasswordHash) {
		_ = guard.Fail(ctx, email, meta.IP)
		l.Info("login failed", slog.String("account_id", account.ID))
		return domain.TokenPair{}, domain.Account{}, ErrInvalidCredentials
	}

	pair, record, err := s.issue(account.ID, "", meta)
	if err != nil {
		return domain.TokenPair{}, domain.Account{}, err
	}

	now := record.IssuedAt
	err = s.withTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Accounts().UpdateLastLogin(ctx, account.ID, now); err != nil {
			return err
		}
		return tx.RefreshRecords().CreateRefreshRecord(ctx, record)
	})
	if err != nil {
		return domain.TokenPair{}, domain.Account{}, internalErr("persist session", err)
	}

	_ = guard.Reset(ctx, email, meta.IP)
	account.LastLoginAt = &now

	l.Info("login succeeded", slog.String("account_id", account.ID))
	return pair, account, nil
}

// Refresh rotates a refresh token: the presented record is revoked and a
// new pair is issued. Presenting a token that was already rotated is
// treated as theft and revokes every live session of the account.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string, meta domain.ClientMeta) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	meta = meta.Truncated()

	claims, err := s.decode(ctx, refreshToken, jwtx.KindRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}

	var (
		pair   domain.TokenPair
		reject string
		replay int64 = -1
	)
	err = s.withTx(ctx, func(ctx context.Context, tx store.Tx) error {
		now := s.Codec.Now()

		rec, err := tx.RefreshRecords().GetRefreshRecord(ctx, claims.ID)
		if errors.Is(err, store.ErrNotFound) {
			reject = "unknown refresh token"
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case rec.AccountID != claims.Subject:
			reject = "refresh token subject mismatch"
			return nil
		case rec.RevokedAt != nil:
			rotated, err := tx.RefreshRecords().HasSuccessor(ctx, rec.ID)
			if err != nil {
				return err
			}
			if !rotated {
				reject = "refresh token revoked"
				return nil
			}
			n, err := tx.RefreshRecords().RevokeAccountRefreshRecords(ctx, rec.AccountID, now)
			if err != nil {
				return err
			}
			replay = n
			reject = "refresh token replayed"
			return nil
		case !rec.Active(now):
			// revoked records were handled above, so this is expiry
			reject = "refresh record expired"
			return nil
		}

		if _, err := tx.Accounts().GetAccountByID(ctx, claims.Subject); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				reject = "account no longer exists"
				return nil
			}
			return err
		}

		// Conditional on revoked_at still being NULL: of two concurrent
		// rotations only one gets here with a row affected.
		if err := tx.RefreshRecords().RevokeRefreshRecord(ctx, rec.ID, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				reject = "refresh token already rotated"
				return nil
			}
			return err
		}

		next, record, err := s.issue(claims.Subject, rec.ID, meta)
		if err != nil {
			return err
		}
		if err := tx.RefreshRecords().CreateRefreshRecord(ctx, record); err != nil {
			return err
		}

		pair = next
		return nil
	})
	if err != nil {
		return domain.TokenPair{}, internalErr("rotate refresh token", err)
	}

	if replay >= 0 {
		l.Warn("refresh token reuse detected, sessions revoked",
			slog.String("account_id", claims.Subject),
			slog.String("jti", claims.ID),
			slog.Int64("revoked", replay),
			slog.String("ip", meta.IP),
		)
		return domain.TokenPair{}, ErrUnauthenticated
	}
	if reject != "" {
		l.Debug("refresh rejected", slog.String("reason", reject))
		return domain.TokenPair{}, ErrUnauthenticated
	}

	return pair, nil
}

// Logout revokes the record behind refreshToken when it carries a valid
// signature. Anything else is ignored; logging out always succeeds from the
// caller's point of view unless storage fails.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	claims, err := s.Codec.Decode(refreshToken, s.Tokens.RefreshSecret)
	if err != nil || claims.Type != jwtx.KindRefresh {
		slogx.FromContext(ctx).Debug("logout with unusable refresh token", "err", err)
		return nil
	}

	sctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	err = s.Store.RefreshRecords().RevokeRefreshRecord(sctx, claims.ID, s.Codec.Now())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return internalErr("revoke refresh token", err)
	}

	slogx.FromContext(ctx).Info("logged out", slog.String("account_id", claims.Subject))
	return nil
}

// CurrentUser resolves an access token to its account.
func (s *SessionService) CurrentUser(ctx context.Context, accessToken string) (domain.Account, error) {
	claims, err := s.decode(ctx, accessToken, jwtx.KindAccess)
	if err != nil {
		return domain.Account{}, err
	}

	sctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	account, err := s.Store.Accounts().GetAccountByID(sctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrUnauthenticated
		}
		return domain.Account{}, internalErr("load account", err)
	}
	return account, nil
}

// decode verifies token with the secret for kind and checks its typ claim.
// The precise failure is logged; callers only ever see ErrUnauthenticated.
func (s *SessionService) decode(ctx context.Context, token string, kind jwtx.Kind) (jwtx.Claims, error) {
	if token == "" {
		return jwtx.Claims{}, ErrUnauthenticated
	}

	claims, err := s.Codec.Decode(token, s.Tokens.secret(kind))
	if err != nil {
		slogx.FromContext(ctx).Debug("token rejected", slog.String("kind", string(kind)), "err", err)
		return jwtx.Claims{}, ErrUnauthenticated
	}
	if claims.Type != kind {
		slogx.FromContext(ctx).Debug("token rejected", slog.String("kind", string(kind)), slog.String("typ", string(claims.Type)))
		return jwtx.Claims{}, ErrUnauthenticated
	}
	return claims, nil
}

// issue mints an access and a refresh token for accountID and returns the
// record to persist for the refresh token.
func (s *SessionService) issue(accountID, rotatedFrom string, meta domain.ClientMeta) (domain.TokenPair, domain.RefreshRecord, error) {
	now := s.Codec.Now()

	access := jwtx.NewClaims(accountID, jwtx.KindAccess)
	accessToken, err := s.Codec.Encode(access, s.Tokens.secret(jwtx.KindAccess), s.Tokens.ttl(jwtx.KindAccess))
	if err != nil {
		return domain.TokenPair{}, domain.RefreshRecord{}, internalErr("sign access token", err)
	}

	refresh := jwtx.NewClaims(accountID, jwtx.KindRefresh)
	refreshToken, err := s.Codec.Encode(refresh, s.Tokens.secret(jwtx.KindRefresh), s.Tokens.ttl(jwtx.KindRefresh))
	if err != nil {
		return domain.TokenPair{}, domain.RefreshRecord{}, internalErr("sign refresh token", err)
	}

	pair := domain.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  now.Add(s.Tokens.AccessTTL),
		RefreshExpiresAt: now.Add(s.Tokens.RefreshTTL),
	}
	record := domain.RefreshRecord{
		ID:          refresh.ID,
		AccountID:   accountID,
		IssuedAt:    now,
		ExpiresAt:   pair.RefreshExpiresAt,
		RotatedFrom: rotatedFrom,
		UserAgent:   meta.UserAgent,
		IP:          meta.IP,
	}
	return pair, record, nil
}

func (s *SessionService) lookupAccount(ctx context.Context, email string) (domain.Account, error) {
	sctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()
	return s.Store.Accounts().GetAccountByEmail(sctx, email)
}

// withTx runs fn in a transaction bounded by StoreTimeout. fn must only use
// tx and the context it is handed.
func (s *SessionService) withTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	sctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	return s.Store.WithTx(sctx, func(tx store.Tx) error {
		return fn(sctx, tx)
	})
}

func (s *SessionService) guard() lockout.Guard {
	if s.Guard == nil {
		return lockout.NopGuard{}
	}
	return s.Guard
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateEmail accepts a bare address only, not "Name <addr>" forms.
func validateEmail(email string) error {
	if email == "" || len(email) > MaxEmailLength {
		return invalid("email", "is not a valid address")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "is not a valid address")
	}
	return nil
}
