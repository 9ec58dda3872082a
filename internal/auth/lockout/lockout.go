// Package lockout throttles failed logins per email and per client address.
package lockout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/notesauth/pkg/cryptox"
	"github.com/aussiebroadwan/notesauth/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned by Check while a counter is at or above the limit.
var ErrLocked = errors.New("lockout: too many failed attempts")

const keyPrefix = "notesauth:login:"

// Guard tracks failed login attempts.
type Guard interface {
	Check(ctx context.Context, email, ip string) error
	Fail(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email, ip string) error
}

// Config is the lockout policy.
type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
}

// DefaultConfig allows five failures per fifteen minutes.
var DefaultConfig = Config{
	MaxAttempts: 5,
	Cooldown:    15 * time.Minute,
}

// RedisGuard keeps fixed-window counters in Redis. Redis failures are logged
// and treated as "not locked" so an outage never blocks logins.
type RedisGuard struct {
	redis  redis.UniversalClient
	config Config
}

// NewRedisGuard returns a Guard backed by client.
func NewRedisGuard(client redis.UniversalClient, cfg Config) *RedisGuard {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig.MaxAttempts
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultConfig.Cooldown
	}
	return &RedisGuard{redis: client, config: cfg}
}

// Check returns ErrLocked when either the email or the ip counter has
// reached the limit.
func (g *RedisGuard) Check(ctx context.Context, email, ip string) error {
	for _, key := range g.keys(email, ip) {
		count, err := g.redis.Get(ctx, key).Int64()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				slogx.FromContext(ctx).Warn("lockout check failed, allowing", "err", err)
			}
			continue
		}
		if count >= int64(g.config.MaxAttempts) {
			return ErrLocked
		}
	}
	return nil
}

// failScript bumps a counter and starts its window in one step. A counter
// found without a TTL gets one, so no key can outlive the cooldown.
const failScript = `
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`

var failLua = redis.NewScript(failScript)

// Fail counts one failed attempt against both keys. A failure on one key
// does not stop the other from being counted.
func (g *RedisGuard) Fail(ctx context.Context, email, ip string) error {
	cooldown := g.config.Cooldown.Milliseconds()
	for _, key := range g.keys(email, ip) {
		if err := failLua.Run(ctx, g.redis, []string{key}, cooldown).Err(); err != nil {
			slogx.FromContext(ctx).Warn("lockout increment failed", "err", err)
		}
	}
	return nil
}

// Reset clears the email counter after a successful login. The ip counter
// is left to expire so that logging into one's own account cannot wipe the
// failures an address has racked up against others.
func (g *RedisGuard) Reset(ctx context.Context, email, ip string) error {
	if err := g.redis.Del(ctx, emailKey(email)).Err(); err != nil {
		slogx.FromContext(ctx).Warn("lockout reset failed", "err", err)
	}
	return nil
}

func (g *RedisGuard) keys(email, ip string) []string {
	keys := []string{emailKey(email)}
	if ip != "" {
		keys = append(keys, ipKey(ip))
	}
	return keys
}

// The email is fingerprinted so addresses never sit in Redis in clear text.
func emailKey(email string) string {
	return keyPrefix + "email:" + cryptox.FingerprintToken(strings.ToLower(strings.TrimSpace(email)))
}

func ipKey(ip string) string {
	return keyPrefix + "ip:" + ip
}

// NopGuard never locks. It is used when no Redis address is configured.
type NopGuard struct{}

func (NopGuard) Check(context.Context, string, string) error { return nil }
func (NopGuard) Fail(context.Context, string, string) error  { return nil }
func (NopGuard) Reset(context.Context, string, string) error { return nil }
