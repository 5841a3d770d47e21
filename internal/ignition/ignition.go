// Package ignition implements passphrase-wrapped authority keys at the
// Skull/Ignition/Distro tiers. Key material is never persisted in the
// clear: it is sealed behind a memory-hard KDF (Argon2id) and a modern
// AEAD (XChaCha20-Poly1305), replacing the XOR-with-fixed-salt
// placeholder flagged in spec.md §9 open question 1.
package ignition

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"crypto/sha256"

	"github.com/padlokk/ignite/internal/fingerprint"
	"github.com/padlokk/ignite/internal/ignerrors"
	"github.com/padlokk/ignite/internal/keymaterial"
	"github.com/padlokk/ignite/internal/keytype"
	"github.com/padlokk/ignite/internal/policy"
)

// Argon2id parameters. These are conservative interactive-use defaults;
// a deployment with different latency/memory budgets may tune them, but
// the wire format always records what was actually used.
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MiB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltSize      = 16
)

// Domain-separation labels for HKDF-expanding the Argon2id master secret
// into two keys that can never collide: the passphrase verifier and the
// AEAD encryption key.
const (
	verifierDomain = "ignite-passphrase-verifier-v1"
	aeadKeyDomain  = "ignite-passphrase-aead-key-v1"
)

// AEADAlgorithm names the wrapping primitive recorded on the wire so a
// future schema bump can introduce a new one alongside this.
const AEADAlgorithm = "xchacha20poly1305"

// Verifier is a salted, iterated hash of a passphrase used to check a
// candidate passphrase without ever deriving the encryption key.
type Verifier struct {
	Hash       []byte
	Salt       []byte
	Algorithm  string
	Iterations uint32 // Argon2 "time" parameter
}

// WrappedKey is the encrypted key material plus what is needed to
// decrypt it given the right passphrase-derived key.
type WrappedKey struct {
	Ciphertext []byte
	Nonce      []byte
	Algorithm  string
}

// Metadata tracks human-facing bookkeeping and unlock history.
type Metadata struct {
	Name                string
	Description          string
	Creator              string
	LastUnlock           *time.Time
	UnlockCount          uint64
	FailedUnlockAttempts uint64
}

// Key is a passphrase-wrapped authority key at an ignition tier.
type Key struct {
	Wrapped          WrappedKey
	KeyType          keytype.KeyType
	PassphraseHash   Verifier
	AuthorityChain   []fingerprint.Fingerprint // parent fingerprints, root first
	CreationTime     time.Time
	ExpirationPolicy *time.Duration // nil = no automatic expiration
	Metadata         Metadata
}

func deriveMasterSecret(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

func hkdfExpand(master []byte, info string) ([]byte, error) {
	reader := hkdf.New(sha256.New, master, nil, []byte(info))
	out := make([]byte, 32)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("ignition: hkdf expand failed: %w", err)
	}
	return out, nil
}

func deriveVerifierAndAEADKey(passphrase string, salt []byte) (verifierHash, aeadKey []byte, err error) {
	master := deriveMasterSecret(passphrase, salt)
	defer secureWipe(master)

	verifierHash, err = hkdfExpand(master, verifierDomain)
	if err != nil {
		return nil, nil, err
	}
	aeadKey, err = hkdfExpand(master, aeadKeyDomain)
	if err != nil {
		return nil, nil, err
	}
	return verifierHash, aeadKey, nil
}

func secureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Create seals material behind passphrase, after validating the
// passphrase through engine (spec.md §4.5: "Passphrase strength is
// enforced by the policy engine before wrapping").
func Create(
	passphrase string,
	material keymaterial.Material,
	kt keytype.KeyType,
	authorityChain []fingerprint.Fingerprint,
	engine *policy.Engine,
	now time.Time,
) (*Key, error) {
	if !kt.IsIgnitionKey() {
		return nil, ignerrors.NewKey(kt.String() + " is not a passphrase-wrapped tier")
	}
	if engine != nil {
		if err := engine.ValidatePassphrase(kt, passphrase); err != nil {
			return nil, err
		}
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("ignition: salt generation failed: %w", err)
	}

	verifierHash, aeadKey, err := deriveVerifierAndAEADKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer secureWipe(aeadKey)

	plaintext, err := encodeMaterial(material)
	if err != nil {
		return nil, err
	}

	wrapped, err := seal(aeadKey, plaintext)
	if err != nil {
		return nil, err
	}

	var expiration *time.Duration
	if d, ok := policy.DefaultExpirationFor(kt); ok {
		expiration = &d
	}

	return &Key{
		Wrapped: wrapped,
		KeyType: kt,
		PassphraseHash: Verifier{
			Hash:       verifierHash,
			Salt:       salt,
			Algorithm:  "argon2id+hkdf-sha256",
			Iterations: argon2Time,
		},
		AuthorityChain:   authorityChain,
		CreationTime:     now,
		ExpirationPolicy: expiration,
		Metadata:         Metadata{},
	}, nil
}

func seal(aeadKey, plaintext []byte) (WrappedKey, error) {
	aead, err := chacha20poly1305.NewX(aeadKey)
	if err != nil {
		return WrappedKey{}, fmt.Errorf("ignition: aead init failed: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return WrappedKey{}, fmt.Errorf("ignition: nonce generation failed: %w", err)
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)
	return WrappedKey{Ciphertext: ciphertext, Nonce: nonce, Algorithm: AEADAlgorithm}, nil
}

func open(aeadKey []byte, wrapped WrappedKey) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(aeadKey)
	if err != nil {
		return nil, fmt.Errorf("ignition: aead init failed: %w", err)
	}
	plaintext, err := aead.Open(nil, wrapped.Nonce, wrapped.Ciphertext, nil)
	if err != nil {
		return nil, ignerrors.NewCrypto("unlock", "AEAD authentication failed", nil)
	}
	return plaintext, nil
}

// verifyPassphrase constant-time-compares the HKDF-derived verifier hash
// for passphrase against k's stored verifier.
func (k *Key) verifyPassphrase(passphrase string) (aeadKey []byte, ok bool, err error) {
	candidateVerifier, candidateAEADKey, err := deriveVerifierAndAEADKey(passphrase, k.PassphraseHash.Salt)
	if err != nil {
		return nil, false, err
	}
	match := subtle.ConstantTimeCompare(candidateVerifier, k.PassphraseHash.Hash) == 1
	if !match {
		secureWipe(candidateAEADKey)
		return nil, false, nil
	}
	return candidateAEADKey, true, nil
}

// IsExpired reports whether k's validity window (if any) has elapsed as
// of now.
func (k *Key) IsExpired(now time.Time) bool {
	if k.ExpirationPolicy == nil {
		return false
	}
	return policy.IsExpired(k.CreationTime, *k.ExpirationPolicy, now)
}

// IsWarning reports whether now falls in the last warning fraction of
// k's validity window.
func (k *Key) IsWarning(now time.Time) bool {
	if k.ExpirationPolicy == nil {
		return false
	}
	p := policy.NewExpirationPolicy()
	return p.IsWarning(k.CreationTime, *k.ExpirationPolicy, now)
}

// Unlock verifies passphrase, checks expiration, decrypts the wrapped
// material, and updates unlock bookkeeping. On a passphrase mismatch,
// FailedUnlockAttempts is incremented and ErrBadPassphrase is returned.
func (k *Key) Unlock(passphrase string, now time.Time) (keymaterial.Material, error) {
	aeadKey, ok, err := k.verifyPassphrase(passphrase)
	if err != nil {
		return keymaterial.Material{}, err
	}
	if !ok {
		k.Metadata.FailedUnlockAttempts++
		return keymaterial.Material{}, ignerrors.NewOperation("unlock", "incorrect passphrase", ignerrors.ErrBadPassphrase)
	}
	defer secureWipe(aeadKey)

	if k.IsExpired(now) {
		return keymaterial.Material{}, ignerrors.NewExpired("unlock", k.KeyType.String())
	}

	plaintext, err := open(aeadKey, k.Wrapped)
	if err != nil {
		return keymaterial.Material{}, err
	}
	defer secureWipe(plaintext)

	material, err := decodeMaterial(plaintext)
	if err != nil {
		return keymaterial.Material{}, err
	}

	k.Metadata.UnlockCount++
	k.Metadata.LastUnlock = &now
	return material, nil
}

// ChangePassphrase unlocks with oldPassphrase (running all of Unlock's
// checks), validates newPassphrase through engine, and rewraps the
// material with a fresh salt and nonce, replacing the verifier.
func (k *Key) ChangePassphrase(oldPassphrase, newPassphrase string, engine *policy.Engine, now time.Time) error {
	material, err := k.Unlock(oldPassphrase, now)
	if err != nil {
		return err
	}
	defer secureWipe(material.Private)

	if engine != nil {
		if err := engine.ValidatePassphrase(k.KeyType, newPassphrase); err != nil {
			return err
		}
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("ignition: salt generation failed: %w", err)
	}
	verifierHash, aeadKey, err := deriveVerifierAndAEADKey(newPassphrase, salt)
	if err != nil {
		return err
	}
	defer secureWipe(aeadKey)

	plaintext, err := encodeMaterial(material)
	if err != nil {
		return err
	}
	wrapped, err := seal(aeadKey, plaintext)
	if err != nil {
		return err
	}

	k.Wrapped = wrapped
	k.PassphraseHash = Verifier{
		Hash:       verifierHash,
		Salt:       salt,
		Algorithm:  "argon2id+hkdf-sha256",
		Iterations: argon2Time,
	}
	return nil
}
