// Package sha256 fingerprints synced content.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprinter implements content.Fingerprinter using SHA-256.
type Fingerprinter struct{}

// New returns a SHA-256 fingerprinter.
func New() *Fingerprinter {
	return &Fingerprinter{}
}

// Fingerprint returns the hex SHA-256 digest of v's JSON encoding. Map keys
// are encoded in sorted order, so equal content yields equal digests.
func (*Fingerprinter) Fingerprint(v any) (string, error) {
	h := sha256.New()
	if err := json.NewEncoder(h).Encode(v); err != nil {
		return "", fmt.Errorf("encode fingerprint: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
