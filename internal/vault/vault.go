// Package vault implements the on-disk storage layout spec.md §4.7
// describes: a single-writer directory tree of keys/, proofs/,
// manifests/ and metadata/ beneath a resolved data root, written with
// atomic rename-on-commit semantics so a crash never leaves a
// half-written artifact visible to a downstream reader.
package vault

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/padlokk/ignite/internal/ignerrors"
	"github.com/padlokk/ignite/internal/ignlog"
)

const (
	keysDirName      = "keys"
	proofsDirName    = "proofs"
	manifestsDirName = "manifests"
	metadataDirName  = "metadata"
)

// privateKeyFileMode is the file mode for any file carrying private key
// material, per spec.md §4.7: owner read/write only.
const privateKeyFileMode = 0o600

// Vault is a handle on a resolved data root. It carries no mutable
// state of its own; every operation reads or writes through Root.
type Vault struct {
	Root string
	log  *ignlog.Logger
}

// Open returns a Vault rooted at root. It does not touch the
// filesystem; call EnsureLayout to create the subdirectories.
func Open(root string) *Vault {
	return &Vault{Root: root, log: ignlog.Discard()}
}

// WithLogger attaches a logger used for write/read diagnostics.
func (v *Vault) WithLogger(log *ignlog.Logger) *Vault {
	if log != nil {
		v.log = log
	}
	return v
}

// EnsureLayout creates the four top-level subdirectories if absent.
// Directories are created with default permissions; callers needing
// tighter directory modes may chmod afterward (spec.md §4.7).
func (v *Vault) EnsureLayout() error {
	for _, dir := range []string{v.keysDir(), v.proofsDir(), v.manifestsDir(), v.metadataDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ignerrors.NewIO("ensure_layout", dir, err)
		}
	}
	return nil
}

func (v *Vault) keysDir() string      { return filepath.Join(v.Root, keysDirName) }
func (v *Vault) proofsDir() string    { return filepath.Join(v.Root, proofsDirName) }
func (v *Vault) manifestsDir() string { return filepath.Join(v.Root, manifestsDirName) }
func (v *Vault) metadataDir() string  { return filepath.Join(v.Root, metadataDirName) }

// writeAtomic writes data to path.tmp then renames it onto path,
// creating path's parent directory if needed. The rename is the
// commit point: a crash before it leaves no observable change, and a
// crash after it leaves only a harmless orphaned .tmp sibling for the
// next run to garbage-collect.
func (v *Vault) writeAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ignerrors.NewIO("write_atomic", dir, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return ignerrors.NewIO("write_atomic", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return ignerrors.NewIO("write_atomic", path, err)
	}
	v.log.Debug("vault write committed", "path", path, "bytes", len(data))
	return nil
}

// listJSON enumerates *.json files directly under dir (no recursion),
// returning absolute paths in directory-iteration order.
func listJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ignerrors.NewIO("list", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// sortedSubdirs returns the immediate subdirectories of dir, sorted by
// name, used when a listing operation must walk one level of
// fingerprint-prefixed subdirectories (proofs/, manifests/).
func sortedSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ignerrors.NewIO("list", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
