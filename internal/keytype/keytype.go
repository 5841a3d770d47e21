// Package keytype defines the five-tier authority hierarchy
// (Skull -> Master -> Repo -> Ignition -> Distro) and the parent/child
// control relation between tiers.
package keytype

import (
	"fmt"
	"strings"
)

// KeyType is the tier of an authority key.
type KeyType int

const (
	Skull KeyType = iota
	Master
	Repo
	Ignition
	Distro
)

var names = map[KeyType]string{
	Skull:    "skull",
	Master:   "master",
	Repo:     "repo",
	Ignition: "ignition",
	Distro:   "distro",
}

// String renders the canonical lowercase name.
func (t KeyType) String() string {
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("keytype(%d)", int(t))
}

// Description gives a short human-facing label for the tier.
func (t KeyType) Description() string {
	switch t {
	case Skull:
		return "root authority (the skull key)"
	case Master:
		return "organization/master authority"
	case Repo:
		return "repository authority"
	case Ignition:
		return "ignition (passphrase-wrapped) key"
	case Distro:
		return "distributed/deployment key"
	default:
		return "unknown"
	}
}

// FromString parses a canonical name or single-letter alias
// (case-insensitive): skull|x, master|m, repo|repository|r,
// ignition|i, distro|distribution|d.
func FromString(s string) (KeyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skull", "x":
		return Skull, nil
	case "master", "m":
		return Master, nil
	case "repo", "repository", "r":
		return Repo, nil
	case "ignition", "i":
		return Ignition, nil
	case "distro", "distribution", "d":
		return Distro, nil
	default:
		return 0, fmt.Errorf("keytype: cannot parse %q", s)
	}
}

// controlEdges is the exhaustive set of permitted parent->child tiers.
// Skipping a tier (e.g. Skull controlling Repo directly) is never
// permitted.
var controlEdges = map[KeyType]KeyType{
	Skull:    Master,
	Master:   Repo,
	Repo:     Ignition,
	Ignition: Distro,
}

// CanControl reports whether a key of type t is permitted to control
// (sign an authority claim for) a key of type child.
func (t KeyType) CanControl(child KeyType) bool {
	want, ok := controlEdges[t]
	return ok && want == child
}

// ParentType returns the tier that may control t, if any.
func (t KeyType) ParentType() (KeyType, bool) {
	for parent, child := range controlEdges {
		if child == t {
			return parent, true
		}
	}
	return 0, false
}

// ChildTypes returns the tiers t may control (zero or one element, since
// the hierarchy is a strict chain).
func (t KeyType) ChildTypes() []KeyType {
	if child, ok := controlEdges[t]; ok {
		return []KeyType{child}
	}
	return nil
}

// IsIgnitionKey reports whether keys of this tier are passphrase-wrapped
// (Skull, Ignition, Distro).
func (t KeyType) IsIgnitionKey() bool {
	switch t {
	case Skull, Ignition, Distro:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler for JSON round-tripping.
func (t KeyType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *KeyType) UnmarshalText(text []byte) error {
	kt, err := FromString(string(text))
	if err != nil {
		return err
	}
	*t = kt
	return nil
}
