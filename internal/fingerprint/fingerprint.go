// Package fingerprint canonicalizes company domains and produces keyed
// digests for cross-workspace comparison without exposing the raw domain.
package fingerprint

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rotisserie/eris"
)

// Normalize canonicalizes a URL-like string into a bare lowercase domain:
// no scheme, no "www." prefix, no path, no query string. Total over
// strings; empty input yields empty output.
func Normalize(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))

	if strings.HasPrefix(d, "https://") {
		d = d[len("https://"):]
	} else if strings.HasPrefix(d, "http://") {
		d = d[len("http://"):]
	}

	d = strings.TrimPrefix(d, "www.")

	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	// Query string may appear without a path separator (acme.com?q=1).
	if i := strings.IndexByte(d, '?'); i >= 0 {
		d = d[:i]
	}

	return d
}

// Hasher computes keyed HMAC-SHA256 fingerprints of normalized domains.
// The secret is server-held and loaded from configuration at process
// start; a party holding only digests cannot dictionary-attack domains
// without it.
type Hasher struct {
	secret []byte
}

// NewHasher creates a Hasher. An empty secret is a fatal configuration
// error, never a silent fallback to an unkeyed digest.
func NewHasher(secret string) (*Hasher, error) {
	if secret == "" {
		return nil, eris.New("fingerprint: hash secret is not configured")
	}
	return &Hasher{secret: []byte(secret)}, nil
}

// Hash returns the 64-character lowercase hex HMAC-SHA256 digest of a
// normalized domain. Deterministic across calls and process restarts for
// a fixed secret.
func (h *Hasher) Hash(normalizedDomain string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(normalizedDomain))
	return hex.EncodeToString(mac.Sum(nil))
}
