package vault

import (
	"os"
	"path/filepath"
	"time"

	"github.com/padlokk/ignite/internal/fingerprint"
	"github.com/padlokk/ignite/internal/ignerrors"
	"github.com/padlokk/ignite/internal/proof"
)

// proofTimestampLayout matches the vault filename form in spec.md §6:
// YYYY-MM-DDTHH-MM-SSZ (colons replaced by hyphens, UTC).
const proofTimestampLayout = "2006-01-02T15-04-05Z"

// ProofPath returns the vault-relative path for a proof bundle issued
// under parentFP at issuedAt: proofs/<parent-fp-short>/<timestamp>.json.
func (v *Vault) ProofPath(parentFP fingerprint.Fingerprint, issuedAt time.Time) string {
	ts := issuedAt.UTC().Format(proofTimestampLayout)
	return filepath.Join(v.proofsDir(), parentFP.Short(), ts+".json")
}

// SaveProof writes bundle's frozen JSON wire form (base64-encoded
// signature/public key, per proof.Bundle's MarshalJSON) to the path for
// parentFP/issuedAt.
func (v *Vault) SaveProof(parentFP fingerprint.Fingerprint, issuedAt time.Time, bundle *proof.Bundle) error {
	data, err := bundle.MarshalJSON()
	if err != nil {
		return ignerrors.NewIO("save_proof", "", err)
	}
	path := v.ProofPath(parentFP, issuedAt)
	return v.writeAtomic(path, data, 0o644)
}

// LoadProof reads a proof bundle from an absolute path (typically one
// returned by ListProofs) and verifies its digest against the stored
// payload before returning it.
func (v *Vault) LoadProof(path string) (*proof.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ignerrors.NewOperation("load_proof", "no proof at "+path, ignerrors.ErrNotFound)
		}
		return nil, ignerrors.NewIO("load_proof", path, err)
	}
	var bundle proof.Bundle
	if err := bundle.UnmarshalJSON(data); err != nil {
		return nil, ignerrors.NewIO("load_proof", path, err)
	}
	if err := bundle.VerifyDigest(); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// ListProofs returns the absolute paths of every proof file under
// parentFP's subdirectory, non-recursively.
func (v *Vault) ListProofs(parentFP fingerprint.Fingerprint) ([]string, error) {
	return listJSON(filepath.Join(v.proofsDir(), parentFP.Short()))
}

// ListAllProofSubjects returns the short fingerprints of every parent
// subdirectory present under proofs/, sorted.
func (v *Vault) ListAllProofSubjects() ([]string, error) {
	return sortedSubdirs(v.proofsDir())
}
