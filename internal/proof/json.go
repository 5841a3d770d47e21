package proof

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// bundleDTO is the on-disk JSON shape for a Bundle. Signature and
// PublicKey are encoded as unpadded base64 strings (spec.md §9 open
// question 3: the encoding must be chosen and frozen — this
// implementation picks unpadded base64 as the spec recommends).
type bundleDTO struct {
	PayloadJSON string `json:"payload_json"`
	Digest      string `json:"digest"`
	Signature   string `json:"signature"`
	PublicKey   string `json:"public_key"`
	ExpiresAt   string `json:"expires_at"`
}

// MarshalJSON implements json.Marshaler with the frozen wire encoding.
func (b Bundle) MarshalJSON() ([]byte, error) {
	return json.Marshal(bundleDTO{
		PayloadJSON: b.PayloadJSON,
		Digest:      b.Digest,
		Signature:   base64.RawStdEncoding.EncodeToString(b.Signature),
		PublicKey:   base64.RawStdEncoding.EncodeToString(b.PublicKey),
		ExpiresAt:   formatTimestamp(b.ExpiresAt),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var dto bundleDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return err
	}
	sig, err := base64.RawStdEncoding.DecodeString(dto.Signature)
	if err != nil {
		return err
	}
	pub, err := base64.RawStdEncoding.DecodeString(dto.PublicKey)
	if err != nil {
		return err
	}
	expiresAt, err := time.Parse("2006-01-02T15:04:05.000000-07:00", dto.ExpiresAt)
	if err != nil {
		// tolerate bundles written with a trailing "Z" or second-resolution offset.
		expiresAt, err = time.Parse(time.RFC3339Nano, dto.ExpiresAt)
		if err != nil {
			return err
		}
	}
	b.PayloadJSON = dto.PayloadJSON
	b.Digest = dto.Digest
	b.Signature = sig
	b.PublicKey = pub
	b.ExpiresAt = expiresAt.UTC()
	return nil
}
