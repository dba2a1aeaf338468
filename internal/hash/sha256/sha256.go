// Package sha256 digests captured page content so callers can tell whether a
// page changed between two reports.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hasher implements audit.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the lowercase hex digest of data.
func (h *Hasher) Hash(data []byte) (string, error) {
	d := sha256.New()
	if _, err := d.Write(data); err != nil {
		return "", fmt.Errorf("sha256 write: %w", err)
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}
