package proof

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// generateNonce returns 128 random bits, hex-encoded (32 characters).
// Callers must regenerate per claim/receipt to avoid replay; two claims
// with the same parent/child, nonce, and issued_at are byte-identical.
func generateNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("proof: nonce generation failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
