package proof

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/padlokk/ignite/internal/ignerrors"
)

// Bundle is a complete, verifiable proof: the canonical payload that was
// signed, its digest, the Ed25519 signature over the digest bytes, the
// verifying key, and an expiry.
//
// Invariants:
//   - P1: Digest == hex(SHA256(PayloadJSON))
//   - P2: Signature verifies Digest's UTF-8 bytes under PublicKey
//   - P3: for a freshly produced bundle, now <= ExpiresAt
//
// Signing note: the UTF-8 bytes of the hex digest STRING are signed, not
// the raw 32-byte hash. This preserves compatibility with proofs already
// produced under schema 1.0; a future schema bump should sign raw digest
// bytes instead (spec.md §9).
type Bundle struct {
	PayloadJSON string
	Digest      string
	Signature   []byte // 64 bytes
	PublicKey   []byte // 32 bytes
	ExpiresAt   time.Time
}

func computeDigest(payloadJSON string) string {
	sum := sha256.Sum256([]byte(payloadJSON))
	return hex.EncodeToString(sum[:])
}

// SignClaim signs an AuthorityClaim, producing a Bundle that expires at
// expiresAt. signingKey must be the parent's Ed25519 private key;
// Age-tagged material cannot sign proofs (callers should have already
// rejected that via keymaterial.Material.SigningKey).
func SignClaim(claim *AuthorityClaim, signingKey ed25519.PrivateKey, expiresAt time.Time) (*Bundle, error) {
	payload := claim.CanonicalJSON()
	return sign(payload, signingKey, expiresAt)
}

// SignReceipt signs a SubjectReceipt analogously to SignClaim.
func SignReceipt(receipt *SubjectReceipt, signingKey ed25519.PrivateKey, expiresAt time.Time) (*Bundle, error) {
	payload := receipt.CanonicalJSON()
	return sign(payload, signingKey, expiresAt)
}

func sign(payloadJSON string, signingKey ed25519.PrivateKey, expiresAt time.Time) (*Bundle, error) {
	if len(signingKey) != ed25519.PrivateKeySize {
		return nil, ignerrors.NewKey("signing key is not a valid ed25519 private key")
	}
	digest := computeDigest(payloadJSON)
	signature := ed25519.Sign(signingKey, []byte(digest))
	publicKey := signingKey.Public().(ed25519.PublicKey)

	return &Bundle{
		PayloadJSON: payloadJSON,
		Digest:      digest,
		Signature:   signature,
		PublicKey:   []byte(publicKey),
		ExpiresAt:   expiresAt.UTC(),
	}, nil
}

// VerifyDigest recomputes the digest from PayloadJSON and rejects if it
// disagrees with the stored Digest (P1). This succeeds even for an
// expired bundle.
func (b *Bundle) VerifyDigest() error {
	recomputed := computeDigest(b.PayloadJSON)
	if recomputed != b.Digest {
		return ignerrors.NewCrypto("verify_digest", "digest does not match payload_json", nil)
	}
	return nil
}

// Verify rejects an expired bundle (now > ExpiresAt) and otherwise
// Ed25519-verifies Signature over the UTF-8 bytes of Digest under
// PublicKey. It does not recompute the digest from PayloadJSON; call
// VerifyDigest for that.
func (b *Bundle) Verify(now time.Time) error {
	if now.After(b.ExpiresAt) {
		return ignerrors.NewExpired("proof_verify", "bundle")
	}
	if len(b.PublicKey) != ed25519.PublicKeySize || len(b.Signature) != ed25519.SignatureSize {
		return ignerrors.NewCrypto("verify", "malformed signature or public key", nil)
	}
	if !ed25519.Verify(ed25519.PublicKey(b.PublicKey), []byte(b.Digest), b.Signature) {
		return ignerrors.NewCrypto("verify", "signature does not verify", nil)
	}
	return nil
}

// VerifyFull runs VerifyDigest then Verify, in that order.
func (b *Bundle) VerifyFull(now time.Time) error {
	if err := b.VerifyDigest(); err != nil {
		return err
	}
	return b.Verify(now)
}
