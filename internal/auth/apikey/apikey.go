// Package apikey guards the administrative endpoints (index rebuild, cache
// invalidation) with pre-shared keys. Only SHA-256 hashes of the keys are
// configured; raw keys are generated with crypto/rand and shown once.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var ErrInvalidKey = errors.New("invalid api key")

// Validator checks presented keys against a fixed set of hashes.
type Validator struct {
	hashes [][]byte
	logger *slog.Logger
}

// NewValidator accepts hex SHA-256 digests as produced by HashKey. Blank
// entries are skipped; anything else that is not a digest is an error.
func NewValidator(hashes []string) (*Validator, error) {
	v := &Validator{logger: slog.Default().With("component", "apikey-validator")}
	for _, h := range hashes {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		b, err := hex.DecodeString(h)
		if err != nil || len(b) != sha256.Size {
			return nil, fmt.Errorf("admin key hash %q is not a hex SHA-256 digest", h)
		}
		v.hashes = append(v.hashes, b)
	}
	return v, nil
}

// Enabled reports whether any key is configured.
func (v *Validator) Enabled() bool {
	return len(v.hashes) > 0
}

// Validate returns ErrInvalidKey unless rawKey hashes to a configured
// digest. Every digest is compared in constant time.
func (v *Validator) Validate(ctx context.Context, rawKey string) error {
	sum := sha256.Sum256([]byte(rawKey))
	match := 0
	for _, h := range v.hashes {
		match |= subtle.ConstantTimeCompare(sum[:], h)
	}
	if match != 1 {
		v.logger.Warn("rejected admin key")
		return ErrInvalidKey
	}
	return nil
}

// HashKey returns the SHA-256 hex digest of a raw API key.
func HashKey(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// Generate returns a random 32-byte hex-encoded key.
func Generate() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
