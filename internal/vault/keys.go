package vault

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/padlokk/ignite/internal/authoritykey"
	"github.com/padlokk/ignite/internal/fingerprint"
	"github.com/padlokk/ignite/internal/ignerrors"
	"github.com/padlokk/ignite/internal/ignition"
	"github.com/padlokk/ignite/internal/keytype"
)

// KeyPath returns the vault-relative key path:
// keys/<key_type>/<fingerprint_short>.json.
func (v *Vault) KeyPath(kt keytype.KeyType, fp fingerprint.Fingerprint) string {
	return filepath.Join(v.keysDir(), kt.String(), fp.Short()+".json")
}

// SaveAuthorityKey persists a plain (non-passphrase-wrapped) authority
// key, used for the Master and Repo tiers. The record is written as-is,
// including any private bytes held in Material, so the file is created
// owner read/write only. Serialization is pretty-printed JSON:
// there are no signed bytes to preserve exactly (spec.md §4.7).
func (v *Vault) SaveAuthorityKey(k *authoritykey.Key) error {
	if k.Type.IsIgnitionKey() {
		return ignerrors.NewOperation("save_authority_key", k.Type.String()+" is a passphrase-wrapped tier; use SaveIgnitionKey", nil)
	}
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return ignerrors.NewIO("save_authority_key", "", err)
	}
	path := v.KeyPath(k.Type, k.Fingerprint)
	if err := v.writeAtomic(path, data, privateKeyFileMode); err != nil {
		return err
	}
	k.SetPath(path)
	return nil
}

// LoadAuthorityKey reads back a key written by SaveAuthorityKey.
func (v *Vault) LoadAuthorityKey(kt keytype.KeyType, fp fingerprint.Fingerprint) (*authoritykey.Key, error) {
	path := v.KeyPath(kt, fp)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ignerrors.NewOperation("load_authority_key", "no key at "+path, ignerrors.ErrNotFound)
		}
		return nil, ignerrors.NewIO("load_authority_key", path, err)
	}
	var k authoritykey.Key
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, ignerrors.NewIO("load_authority_key", path, err)
	}
	k.SetPath(path)
	return &k, nil
}

// SaveIgnitionKey persists a passphrase-wrapped key (Skull, Ignition,
// or Distro tier) at the path for fp, the fingerprint of the material
// that was sealed into k. The wrapped ciphertext is the only
// representation of the private material that ever touches disk; fp
// itself is derived from the public half before wrapping and is never
// recoverable from k alone, so callers must supply it.
func (v *Vault) SaveIgnitionKey(fp fingerprint.Fingerprint, k *ignition.Key) error {
	if !k.KeyType.IsIgnitionKey() {
		return ignerrors.NewOperation("save_ignition_key", k.KeyType.String()+" is not a passphrase-wrapped tier", nil)
	}
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return ignerrors.NewIO("save_ignition_key", "", err)
	}
	path := v.KeyPath(k.KeyType, fp)
	return v.writeAtomic(path, data, privateKeyFileMode)
}

// LoadIgnitionKey reads back a key written by SaveIgnitionKey.
func (v *Vault) LoadIgnitionKey(kt keytype.KeyType, fp fingerprint.Fingerprint) (*ignition.Key, error) {
	path := v.KeyPath(kt, fp)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ignerrors.NewOperation("load_ignition_key", "no key at "+path, ignerrors.ErrNotFound)
		}
		return nil, ignerrors.NewIO("load_ignition_key", path, err)
	}
	var k ignition.Key
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, ignerrors.NewIO("load_ignition_key", path, err)
	}
	return &k, nil
}

// ListKeys returns the absolute paths of every key file under a tier's
// subdirectory, non-recursively.
func (v *Vault) ListKeys(kt keytype.KeyType) ([]string, error) {
	return listJSON(filepath.Join(v.keysDir(), kt.String()))
}
