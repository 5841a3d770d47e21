package vault

import (
	"os"
	"path/filepath"

	"github.com/padlokk/ignite/internal/ignerrors"
	"github.com/padlokk/ignite/internal/manifest"
)

// ManifestPath returns the vault-relative path for m, using its own
// Filename(): manifests/<parent-fp-short>/<timestamp>_<event_type>.json.
func (v *Vault) ManifestPath(m *manifest.Manifest) string {
	return filepath.Join(v.manifestsDir(), m.Filename())
}

// SaveManifest computes m's digest if not already sealed, then writes
// the digest-spliced JSON form to its canonical path.
func (v *Vault) SaveManifest(m *manifest.Manifest) error {
	if m.Digest == nil {
		m.ComputeDigest()
	}
	body, err := m.ToJSONWithDigest()
	if err != nil {
		return err
	}
	path := v.ManifestPath(m)
	return v.writeAtomic(path, []byte(body), 0o644)
}

// LoadManifest reads a manifest from an absolute path and verifies its
// digest before returning it, per spec.md §4.7: a digest mismatch is
// reported as a CryptoError rather than silently accepted.
func (v *Vault) LoadManifest(path string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ignerrors.NewOperation("load_manifest", "no manifest at "+path, ignerrors.ErrNotFound)
		}
		return nil, ignerrors.NewIO("load_manifest", path, err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, ignerrors.NewIO("load_manifest", path, err)
	}
	if err := m.VerifyDigest(); err != nil {
		return nil, err
	}
	return m, nil
}

// ListManifests returns the absolute paths of every manifest file under
// parentFPShort's subdirectory, non-recursively.
func (v *Vault) ListManifests(parentFPShort string) ([]string, error) {
	return listJSON(filepath.Join(v.manifestsDir(), parentFPShort))
}

// ListAllManifestSubjects returns the short fingerprints of every
// parent subdirectory present under manifests/, sorted.
func (v *Vault) ListAllManifestSubjects() ([]string, error) {
	return sortedSubdirs(v.manifestsDir())
}
