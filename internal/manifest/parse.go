package manifest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/padlokk/ignite/internal/fingerprint"
	"github.com/padlokk/ignite/internal/keytype"
)

type scopeDTO struct {
	Env   string   `json:"env"`
	Paths []string `json:"paths"`
}

type childDTO struct {
	CiphertextMD5 string    `json:"ciphertext_md5,omitempty"`
	Fingerprint   string    `json:"fingerprint"`
	IssuedAt      string    `json:"issued_at"`
	Role          string    `json:"role"`
	Scope         *scopeDTO `json:"scope,omitempty"`
	Status        string    `json:"status"`
	RevokedAt     string    `json:"revoked_at,omitempty"`
}

type eventDTO struct {
	EventType         string `json:"event_type"`
	InitiatedAt       string `json:"initiated_at"`
	InitiatedBy       string `json:"initiated_by"`
	ParentFingerprint string `json:"parent_fingerprint"`
	Reason            string `json:"reason"`
}

type digestDTO struct {
	Algorithm    string `json:"algorithm"`
	ManifestBody string `json:"manifest_body"`
	Value        string `json:"value"`
}

type manifestDTO struct {
	Children      []childDTO `json:"children"`
	Digest        *digestDTO `json:"digest,omitempty"`
	Event         eventDTO   `json:"event"`
	SchemaVersion string     `json:"schema_version"`
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05.000000-07:00", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("manifest: cannot parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Parse decodes a manifest previously produced by ToJSONWithDigest (or
// CanonicalJSON, for a manifest that was never sealed).
func Parse(data []byte) (*Manifest, error) {
	var dto manifestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}

	parentFP, err := fingerprint.FromString(dto.Event.ParentFingerprint)
	if err != nil {
		return nil, err
	}
	initiatedAt, err := parseTimestamp(dto.Event.InitiatedAt)
	if err != nil {
		return nil, err
	}

	m := New(Event{
		EventType:         EventType(dto.Event.EventType),
		ParentFingerprint: parentFP,
		InitiatedAt:       initiatedAt,
		InitiatedBy:       dto.Event.InitiatedBy,
		Reason:            dto.Event.Reason,
	})
	m.SchemaVersion = dto.SchemaVersion

	for _, cd := range dto.Children {
		childFP, err := fingerprint.FromString(cd.Fingerprint)
		if err != nil {
			return nil, err
		}
		role, err := keytype.FromString(cd.Role)
		if err != nil {
			return nil, err
		}
		issuedAt, err := parseTimestamp(cd.IssuedAt)
		if err != nil {
			return nil, err
		}
		child := Child{
			Fingerprint:   childFP,
			Role:          role,
			Status:        cd.Status,
			CiphertextMD5: cd.CiphertextMD5,
			IssuedAt:      issuedAt,
		}
		if cd.Scope != nil {
			child.Scope = &Scope{Env: cd.Scope.Env, Paths: cd.Scope.Paths}
		}
		if cd.RevokedAt != "" {
			revokedAt, err := parseTimestamp(cd.RevokedAt)
			if err != nil {
				return nil, err
			}
			child.RevokedAt = &revokedAt
		}
		m.AddChild(child)
	}

	if dto.Digest != nil {
		m.Digest = &Digest{
			Algorithm:    dto.Digest.Algorithm,
			Value:        dto.Digest.Value,
			ManifestBody: dto.Digest.ManifestBody,
		}
	}

	return m, nil
}
