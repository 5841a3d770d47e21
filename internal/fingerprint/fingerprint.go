// Package fingerprint derives and formats the SHA-256 identity used for
// every authority key in the vault.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// Algorithm is currently always SHA256; the field exists so a future
// schema bump can add a variant without breaking the string form.
const Algorithm = "SHA256"

// Fingerprint identifies a key by the SHA-256 hash of its public bytes.
type Fingerprint struct {
	Algorithm string
	Hex       string // lowercase hex
}

// FromKeyMaterial derives a Fingerprint from public key bytes.
func FromKeyMaterial(publicBytes []byte) Fingerprint {
	sum := sha256.Sum256(publicBytes)
	return Fingerprint{Algorithm: Algorithm, Hex: hex.EncodeToString(sum[:])}
}

// FromFile derives a Fingerprint directly from the bytes of a key file on
// disk, without requiring the caller to parse it into KeyMaterial first.
func FromFile(path string) (Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("fingerprint: read %s: %w", path, err)
	}
	return FromKeyMaterial(data), nil
}

// FromString parses the "ALGO:hex" display form.
func FromString(s string) (Fingerprint, error) {
	algo, hexPart, ok := strings.Cut(s, ":")
	if !ok || algo == "" || hexPart == "" {
		return Fingerprint{}, fmt.Errorf("fingerprint: malformed fingerprint %q", s)
	}
	return Fingerprint{Algorithm: algo, Hex: strings.ToLower(hexPart)}, nil
}

// String renders "ALGO:hex".
func (f Fingerprint) String() string {
	return f.Algorithm + ":" + f.Hex
}

// Short returns the first 8 hex characters, used for display and for
// vault path prefixes.
func (f Fingerprint) Short() string {
	if len(f.Hex) <= 8 {
		return f.Hex
	}
	return f.Hex[:8]
}

// Equal compares fingerprints by (algorithm, hex).
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Algorithm == other.Algorithm && f.Hex == other.Hex
}

// IsZero reports whether f is the zero value (no fingerprint set).
func (f Fingerprint) IsZero() bool {
	return f.Algorithm == "" && f.Hex == ""
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := FromString(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
