package proof

import (
	"strings"
	"time"

	"github.com/padlokk/ignite/internal/fingerprint"
	"github.com/padlokk/ignite/internal/ignerrors"
)

// SchemaVersion is the current authority-claim/subject-receipt schema.
const SchemaVersion = "1.0"

// AuthorityClaim is a parent's assertion that it controls a child key.
type AuthorityClaim struct {
	SchemaVersion string
	ParentFP      fingerprint.Fingerprint
	ChildFP       fingerprint.Fingerprint
	IssuedAt      time.Time
	Purpose       string
	Nonce         string
}

// NewAuthorityClaim builds a claim with a fresh nonce and issued_at set
// to now. purpose must not contain NUL or newline bytes.
func NewAuthorityClaim(parentFP, childFP fingerprint.Fingerprint, purpose string) (*AuthorityClaim, error) {
	if err := validatePurpose(purpose); err != nil {
		return nil, err
	}
	nonce, err := generateNonce()
	if err != nil {
		return nil, err
	}
	return &AuthorityClaim{
		SchemaVersion: SchemaVersion,
		ParentFP:      parentFP,
		ChildFP:       childFP,
		IssuedAt:      time.Now().UTC(),
		Purpose:       purpose,
		Nonce:         nonce,
	}, nil
}

func validatePurpose(purpose string) error {
	if strings.ContainsAny(purpose, "\x00\n") {
		return ignerrors.NewKey("purpose must not contain NUL or newline bytes")
	}
	return nil
}

// CanonicalJSON renders the single-line, sorted-key form used for
// digesting and signing: child_fp, issued_at, nonce, parent_fp, purpose,
// schema_version, in that order.
func (c *AuthorityClaim) CanonicalJSON() string {
	parts := []string{
		field("child_fp", escapeJSONString(c.ChildFP.String())),
		field("issued_at", escapeJSONString(formatTimestamp(c.IssuedAt))),
		field("nonce", escapeJSONString(c.Nonce)),
		field("parent_fp", escapeJSONString(c.ParentFP.String())),
		field("purpose", escapeJSONString(c.Purpose)),
		field("schema_version", escapeJSONString(c.SchemaVersion)),
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// SubjectReceipt is a child's acknowledgement of a parent's authority.
type SubjectReceipt struct {
	SchemaVersion  string
	ChildFP        fingerprint.Fingerprint
	ParentFP       fingerprint.Fingerprint
	AcknowledgedAt time.Time
	Nonce          string
}

// NewSubjectReceipt builds a receipt with a fresh nonce and
// acknowledged_at set to now.
func NewSubjectReceipt(childFP, parentFP fingerprint.Fingerprint) (*SubjectReceipt, error) {
	nonce, err := generateNonce()
	if err != nil {
		return nil, err
	}
	return &SubjectReceipt{
		SchemaVersion:  SchemaVersion,
		ChildFP:        childFP,
		ParentFP:       parentFP,
		AcknowledgedAt: time.Now().UTC(),
		Nonce:          nonce,
	}, nil
}

// CanonicalJSON renders the sorted-key form: acknowledged_at, child_fp,
// nonce, parent_fp, schema_version.
func (r *SubjectReceipt) CanonicalJSON() string {
	parts := []string{
		field("acknowledged_at", escapeJSONString(formatTimestamp(r.AcknowledgedAt))),
		field("child_fp", escapeJSONString(r.ChildFP.String())),
		field("nonce", escapeJSONString(r.Nonce)),
		field("parent_fp", escapeJSONString(r.ParentFP.String())),
		field("schema_version", escapeJSONString(r.SchemaVersion)),
	}
	return "{" + strings.Join(parts, ",") + "}"
}
