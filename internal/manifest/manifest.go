// Package manifest implements AffectedKeyManifest: the sealed record of
// descendants affected by a rotation or revocation, its canonical JSON
// form, and the digest that binds it.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/padlokk/ignite/internal/fingerprint"
	"github.com/padlokk/ignite/internal/ignerrors"
	"github.com/padlokk/ignite/internal/keytype"
)

// EventType distinguishes what caused this manifest.
type EventType string

const (
	EventRotation   EventType = "rotation"
	EventRevocation EventType = "revocation"
)

// Event describes the operation that produced a manifest.
type Event struct {
	EventType          EventType
	ParentFingerprint  fingerprint.Fingerprint
	InitiatedAt        time.Time
	InitiatedBy        string
	Reason             string
}

// Scope restricts a ManifestChild's effect to particular paths/env.
type Scope struct {
	Paths []string // caller-supplied order, not re-sorted
	Env   string
}

// Child is one affected descendant recorded in a manifest.
type Child struct {
	Fingerprint    fingerprint.Fingerprint
	Role           keytype.KeyType
	Status         string
	CiphertextMD5  string // optional, empty when absent
	Scope          *Scope // optional
	IssuedAt       time.Time
	RevokedAt      *time.Time // optional
}

// Manifest is the full affected-key manifest: the event that produced
// it, plus each affected child.
type Manifest struct {
	SchemaVersion string
	Event         Event
	Children      []Child
	Digest        *Digest // set by ComputeDigest
}

// Digest is the sealed digest of a manifest's canonical JSON.
type Digest struct {
	Algorithm    string
	Value        string
	ManifestBody string // always "canonical"
}

// New builds an empty manifest for the given event.
func New(event Event) *Manifest {
	return &Manifest{SchemaVersion: "1.0", Event: event}
}

// AddChild appends a child to the manifest.
func (m *Manifest) AddChild(c Child) {
	m.Children = append(m.Children, c)
}

func escape(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func timestampJSON(t time.Time) string {
	return escape(t.UTC().Format("2006-01-02T15:04:05.000000-07:00"))
}

func childJSON(c Child) string {
	var parts []string
	if c.CiphertextMD5 != "" {
		parts = append(parts, `"ciphertext_md5":`+escape(c.CiphertextMD5))
	}
	parts = append(parts, `"fingerprint":`+escape(c.Fingerprint.String()))
	parts = append(parts, `"issued_at":`+timestampJSON(c.IssuedAt))
	parts = append(parts, `"role":`+escape(c.Role.String()))
	if c.Scope != nil {
		parts = append(parts, `"scope":`+scopeJSON(*c.Scope))
	}
	parts = append(parts, `"status":`+escape(c.Status))
	if c.RevokedAt != nil {
		parts = append(parts, `"revoked_at":`+timestampJSON(*c.RevokedAt))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func scopeJSON(s Scope) string {
	pathParts := make([]string, len(s.Paths))
	for i, p := range s.Paths {
		pathParts[i] = escape(p)
	}
	return `{"env":` + escape(s.Env) + `,"paths":[` + strings.Join(pathParts, ",") + `]}`
}

func eventJSON(e Event) string {
	parts := []string{
		`"event_type":` + escape(string(e.EventType)),
		`"initiated_at":` + timestampJSON(e.InitiatedAt),
		`"initiated_by":` + escape(e.InitiatedBy),
		`"parent_fingerprint":` + escape(e.ParentFingerprint.String()),
		`"reason":` + escape(e.Reason),
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// CanonicalJSON renders the sealed-body form with top-level keys
// children, event, schema_version in that order. The digest, if any, is
// NOT included here; use ToJSONWithDigest for the persisted form.
func (m *Manifest) CanonicalJSON() string {
	childParts := make([]string, len(m.Children))
	for i, c := range m.Children {
		childParts[i] = childJSON(c)
	}
	children := "[" + strings.Join(childParts, ",") + "]"

	parts := []string{
		`"children":` + children,
		`"event":` + eventJSON(m.Event),
		`"schema_version":` + escape(m.SchemaVersion),
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// ComputeDigest seals the manifest: Digest is set from SHA256 of the
// current CanonicalJSON().
func (m *Manifest) ComputeDigest() {
	canonical := m.CanonicalJSON()
	m.Digest = &Digest{
		Algorithm:    "SHA256",
		Value:        sha256Hex(canonical),
		ManifestBody: "canonical",
	}
}

// ToJSONWithDigest splices the digest object between "children" and
// "event" in the canonical string. ComputeDigest must have been called
// first.
func (m *Manifest) ToJSONWithDigest() (string, error) {
	if m.Digest == nil {
		return "", ignerrors.NewOperation("to_json_with_digest", "digest not computed; call ComputeDigest first", nil)
	}
	childParts := make([]string, len(m.Children))
	for i, c := range m.Children {
		childParts[i] = childJSON(c)
	}
	children := "[" + strings.Join(childParts, ",") + "]"

	digestParts := []string{
		`"algorithm":` + escape(m.Digest.Algorithm),
		`"manifest_body":` + escape(m.Digest.ManifestBody),
		`"value":` + escape(m.Digest.Value),
	}
	digestJSON := "{" + strings.Join(digestParts, ",") + "}"

	parts := []string{
		`"children":` + children,
		`"digest":` + digestJSON,
		`"event":` + eventJSON(m.Event),
		`"schema_version":` + escape(m.SchemaVersion),
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// VerifyDigest recomputes the digest over CanonicalJSON() and compares
// it to the stored Digest.Value.
func (m *Manifest) VerifyDigest() error {
	if m.Digest == nil {
		return ignerrors.NewCrypto("verify_digest", "manifest has no digest", nil)
	}
	recomputed := sha256Hex(m.CanonicalJSON())
	if recomputed != m.Digest.Value {
		return ignerrors.NewCrypto("verify_digest", "digest does not match canonical body", nil)
	}
	return nil
}

// Filename returns the vault-relative manifest filename:
// <parent-fp-short>/<YYYY-MM-DDTHH-MM-SSZ>_<event_type>.json
// (colons replaced by hyphens for filesystem portability).
func (m *Manifest) Filename() string {
	ts := m.Event.InitiatedAt.UTC().Format("2006-01-02T15-04-05Z")
	return m.Event.ParentFingerprint.Short() + "/" + ts + "_" + string(m.Event.EventType) + ".json"
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
