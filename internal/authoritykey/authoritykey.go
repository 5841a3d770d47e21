// Package authoritykey defines the persisted AuthorityKey record and its
// metadata, aggregating a KeyMaterial, KeyType, and fingerprint with the
// ordered list of children it controls.
package authoritykey

import (
	"encoding/json"
	"time"

	"github.com/padlokk/ignite/internal/fingerprint"
	"github.com/padlokk/ignite/internal/ignerrors"
	"github.com/padlokk/ignite/internal/keymaterial"
	"github.com/padlokk/ignite/internal/keytype"
)

// Metadata is mutable bookkeeping about a key owned by the holder or a
// policy's apply_key_defaults hook.
type Metadata struct {
	CreationTime time.Time
	Creator      string
	Description  string
	Expiration   *time.Time
	LastUsed     *time.Time
	UsageCount   uint64
}

// Touch records a use of the key, bumping UsageCount and LastUsed.
func (m *Metadata) Touch(now time.Time) {
	m.UsageCount++
	m.LastUsed = &now
}

// Key aggregates key material, type, fingerprint, on-disk path and
// metadata, plus the ordered list of fingerprints this key directly
// controls.
//
// Invariants enforced by this package:
//   - I1: Fingerprint == Material.Fingerprint()
//   - I2: every element of Children has a type this key's type CanControl
//   - I3: no element appears twice in Children
type Key struct {
	Material    keymaterial.Material
	Type        keytype.KeyType
	Fingerprint fingerprint.Fingerprint
	Path        string // empty until persisted by the vault
	Metadata    Metadata
	Children    []fingerprint.Fingerprint

	// childTypes tracks the declared type of each child fingerprint so
	// AddChild can re-validate I2 without a registry lookup.
	childTypes map[string]keytype.KeyType
}

// New constructs a Key, deriving the fingerprint from material and
// validating I1 by construction (the fingerprint cannot be supplied
// independently).
func New(material keymaterial.Material, kt keytype.KeyType, meta Metadata) *Key {
	return &Key{
		Material:    material,
		Type:        kt,
		Fingerprint: material.Fingerprint(),
		Metadata:    meta,
		childTypes:  make(map[string]keytype.KeyType),
	}
}

// CanControl reports whether this key's type is permitted to control a
// key of childType (I2's precondition).
func (k *Key) CanControl(childType keytype.KeyType) bool {
	return k.Type.CanControl(childType)
}

// AddChild appends childFP to Children, enforcing I2 (permitted tier
// edge) and I3 (no duplicate). It does not check whether childFP already
// has a different parent recorded elsewhere; that cross-key invariant is
// the AuthorityChain's responsibility.
func (k *Key) AddChild(childFP fingerprint.Fingerprint, childType keytype.KeyType) error {
	if !k.CanControl(childType) {
		return ignerrors.NewOperation("add_child", k.Type.String()+" cannot control "+childType.String(), nil)
	}
	for _, existing := range k.Children {
		if existing.Equal(childFP) {
			return ignerrors.NewOperation("add_child", "duplicate child "+childFP.String(), ignerrors.ErrDuplicate)
		}
	}
	k.Children = append(k.Children, childFP)
	if k.childTypes == nil {
		k.childTypes = make(map[string]keytype.KeyType)
	}
	k.childTypes[childFP.String()] = childType
	return nil
}

// HasChild reports whether childFP is already recorded as a child.
func (k *Key) HasChild(childFP fingerprint.Fingerprint) bool {
	for _, existing := range k.Children {
		if existing.Equal(childFP) {
			return true
		}
	}
	return false
}

// SetPath records where this key was persisted.
func (k *Key) SetPath(path string) { k.Path = path }

// IsExpired reports whether metadata carries an expiration in the past
// relative to now.
func (k *Key) IsExpired(now time.Time) bool {
	return k.Metadata.Expiration != nil && now.After(*k.Metadata.Expiration)
}

// keyAlias has the same exported fields as Key; decoding through it
// avoids recursing back into Key's own UnmarshalJSON.
type keyAlias Key

// MarshalJSON implements json.Marshaler over the exported fields. The
// unexported childTypes index is never persisted: it is rebuilt on load
// from Children, since the tier hierarchy is a strict chain and every
// element of Children necessarily shares the single type k.Type.CanControl
// permits.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyAlias(k))
}

// UnmarshalJSON implements json.Unmarshaler, reconstructing childTypes
// from Type.ChildTypes() after decoding the exported fields.
func (k *Key) UnmarshalJSON(data []byte) error {
	var alias keyAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*k = Key(alias)
	k.childTypes = make(map[string]keytype.KeyType)
	childTypes := k.Type.ChildTypes()
	if len(childTypes) == 1 {
		for _, childFP := range k.Children {
			k.childTypes[childFP.String()] = childTypes[0]
		}
	}
	return nil
}
