package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Params holds the Argon2id cost settings used when producing new hashes.
// Verification always uses the settings embedded in the stored hash.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  uint32
}

// DefaultParams is 64 MiB, 3 passes, 2 lanes with a 32 byte key and 16 byte salt.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	KeyLength:   32,
	SaltLength:  16,
}

// Upper bounds accepted when parsing a stored hash. Anything larger is
// treated as malformed so a crafted hash cannot make Verify allocate
// unbounded memory.
const (
	maxMemory     = 1024 * 1024 // 1 GiB
	maxIterations = 64
	maxKeyLength  = 128
)

var errMalformedHash = errors.New("cryptox: malformed argon2id hash")

// Hasher produces and checks PHC-format Argon2id password hashes. It is safe
// for concurrent use.
type Hasher struct {
	Params Params
	Pepper string

	decoyOnce sync.Once
	decoy     string
}

// NewHasher returns a Hasher with the given cost parameters and optional pepper.
func NewHasher(params Params, pepper string) *Hasher {
	return &Hasher{Params: params, Pepper: pepper}
}

// Hash generates a PHC-format Argon2id hash string including salt and parameters.
// It fails only if the system random source does.
func (h *Hasher) Hash(password string) (string, error) {
	p := h.Params
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}

	key := argon2.IDKey([]byte(password+h.Pepper), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. Malformed or foreign
// hashes never match.
func (h *Hasher) Verify(password, encoded string) bool {
	p, salt, expected, err := decodeHash(encoded)
	if err != nil {
		return false
	}

	computed := argon2.IDKey(
		[]byte(password+h.Pepper),
		salt,
		p.Iterations,
		p.Memory,
		p.Parallelism,
		uint32(len(expected)), // #nosec G115 - bounded by maxKeyLength
	)

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// VerifyDecoy runs a full verification against a fixed hash. Login calls it
// for unknown accounts so both failure paths cost the same.
func (h *Hasher) VerifyDecoy(password string) {
	h.decoyOnce.Do(func() {
		// A failed read leaves decoy empty and Verify returns early; that
		// only happens when the random source is already broken.
		h.decoy, _ = h.Hash("decoy-password-never-matches")
	})
	_ = h.Verify(password, h.decoy)
}

// decodeHash parses $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func decodeHash(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, errMalformedHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return Params{}, nil, nil, errMalformedHash
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return Params{}, nil, nil, errMalformedHash
	}
	if p.Memory == 0 || p.Memory > maxMemory ||
		p.Iterations == 0 || p.Iterations > maxIterations ||
		p.Parallelism == 0 {
		return Params{}, nil, nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxKeyLength {
		return Params{}, nil, nil, errMalformedHash
	}

	return p, salt, key, nil
}
