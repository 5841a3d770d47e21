package policy

import (
	"time"

	"github.com/padlokk/ignite/internal/authoritykey"
	"github.com/padlokk/ignite/internal/ignerrors"
	"github.com/padlokk/ignite/internal/keytype"
)

// defaultWarningFraction is the fraction of the validity window (from
// creation to expiration) within which IsWarning reports true.
const defaultWarningFraction = 0.10

// ExpirationPolicy assigns default expirations per key tier and exposes
// expiry/warning predicates shared by authority keys and ignition keys.
type ExpirationPolicy struct {
	NoopPolicy
	WarningFraction float64
}

// NewExpirationPolicy builds the default policy: Ignition keys expire
// after 30 days, Distro after 7 days, Skull keys never expire
// automatically. Master and Repo are left to caller-supplied metadata.
func NewExpirationPolicy() *ExpirationPolicy {
	return &ExpirationPolicy{WarningFraction: defaultWarningFraction}
}

func (p *ExpirationPolicy) Name() string { return "expiration" }

// DefaultExpirationFor returns the default validity window for a key
// tier, if the tier has one.
func DefaultExpirationFor(kt keytype.KeyType) (time.Duration, bool) {
	switch kt {
	case keytype.Ignition:
		return 30 * 24 * time.Hour, true
	case keytype.Distro:
		return 7 * 24 * time.Hour, true
	case keytype.Skull:
		return 0, false
	default:
		return 0, false
	}
}

// ApplyKeyDefaults sets Metadata.Expiration from DefaultExpirationFor when
// the key has none set yet. Running this twice on the same key is a
// no-op the second time, satisfying idempotence (property 12).
func (p *ExpirationPolicy) ApplyKeyDefaults(key *authoritykey.Key) error {
	if key.Metadata.Expiration != nil {
		return nil
	}
	duration, ok := DefaultExpirationFor(key.Type)
	if !ok {
		return nil
	}
	expiry := key.Metadata.CreationTime.Add(duration)
	key.Metadata.Expiration = &expiry
	return nil
}

// ValidateKey fails if the key is already expired.
func (p *ExpirationPolicy) ValidateKey(key *authoritykey.Key) error {
	if key.IsExpired(time.Now()) {
		return newExpiredKeyError(key.Fingerprint.String())
	}
	return nil
}

func newExpiredKeyError(fp string) error {
	return ignerrors.NewExpired("validate_key", fp)
}

// IsExpired reports whether now is past creationTime+duration.
func IsExpired(creationTime time.Time, duration time.Duration, now time.Time) bool {
	return now.After(creationTime.Add(duration))
}

// IsWarning reports whether now falls within the last WarningFraction of
// the validity window [creationTime, creationTime+duration].
func (p *ExpirationPolicy) IsWarning(creationTime time.Time, duration time.Duration, now time.Time) bool {
	if duration <= 0 {
		return false
	}
	fraction := p.WarningFraction
	if fraction <= 0 {
		fraction = defaultWarningFraction
	}
	expiry := creationTime.Add(duration)
	warningStart := expiry.Add(-time.Duration(float64(duration) * fraction))
	return !now.Before(warningStart) && now.Before(expiry)
}
