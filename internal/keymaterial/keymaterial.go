// Package keymaterial holds the raw key bytes backing an authority key,
// tagged with the format (Age recipient/identity pair, or Ed25519
// signing keypair) they were generated in.
package keymaterial

import (
	"crypto/ed25519"
	"fmt"

	"github.com/padlokk/ignite/internal/fingerprint"
	"github.com/padlokk/ignite/internal/ignerrors"
)

// Format tags which cryptosystem the bytes belong to.
type Format int

const (
	Age Format = iota
	Ed25519
)

func (f Format) String() string {
	switch f {
	case Age:
		return "age"
	case Ed25519:
		return "ed25519"
	default:
		return "unknown"
	}
}

// Material is an ordered pair (public, optional private) of key bytes.
// Public bytes are mandatory; private bytes are present only on the
// generator/owner side. Fingerprint() depends only on Public.
type Material struct {
	Public  []byte
	Private []byte // nil when this side only holds the public half
	Format  Format
}

// New constructs a Material, validating basic shape per format.
func New(public, private []byte, format Format) (Material, error) {
	if len(public) == 0 {
		return Material{}, ignerrors.NewKey("public key material is empty")
	}
	if format == Ed25519 && len(public) != ed25519.PublicKeySize {
		return Material{}, ignerrors.NewKey(fmt.Sprintf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(public)))
	}
	if format == Ed25519 && private != nil && len(private) != ed25519.PrivateKeySize {
		return Material{}, ignerrors.NewKey(fmt.Sprintf("ed25519 private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(private)))
	}
	return Material{Public: public, Private: private, Format: format}, nil
}

// HasPrivate reports whether this side holds private key bytes.
func (m Material) HasPrivate() bool { return len(m.Private) > 0 }

// Fingerprint derives the identity fingerprint from the public bytes
// only; it is independent of whether private bytes are present.
func (m Material) Fingerprint() fingerprint.Fingerprint {
	return fingerprint.FromKeyMaterial(m.Public)
}

// SigningKey returns the Ed25519 private key for signing authority
// proofs. Age-tagged material cannot sign proofs.
func (m Material) SigningKey() (ed25519.PrivateKey, error) {
	if m.Format != Ed25519 {
		return nil, ignerrors.NewKey("key material tagged as age cannot sign proofs")
	}
	if !m.HasPrivate() {
		return nil, ignerrors.NewKey("no private key material available to sign with")
	}
	return ed25519.PrivateKey(m.Private), nil
}

// VerifyingKey returns the Ed25519 public key for verifying proofs
// authored by this material.
func (m Material) VerifyingKey() (ed25519.PublicKey, error) {
	if m.Format != Ed25519 {
		return nil, ignerrors.NewKey("key material tagged as age has no ed25519 verifying key")
	}
	return ed25519.PublicKey(m.Public), nil
}
