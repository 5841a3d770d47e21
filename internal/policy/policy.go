// Package policy implements the pluggable PolicyEngine: expiration
// defaults and passphrase strength rules applied uniformly across key
// lifecycle operations.
package policy

import (
	"github.com/padlokk/ignite/internal/authoritykey"
	"github.com/padlokk/ignite/internal/keytype"
)

// Policy is a capability set with three optional hooks. A policy that
// does not implement a given behavior simply leaves it a no-op by
// embedding NoopPolicy.
type Policy interface {
	Name() string

	// ApplyKeyDefaults may mutate key metadata before persistence (e.g.
	// set a default expiration).
	ApplyKeyDefaults(key *authoritykey.Key) error

	// ValidateKey performs read-only inspection, failing on violation.
	ValidateKey(key *authoritykey.Key) error

	// ValidatePassphrase is called only when a passphrase wraps an
	// ignition key (ignition.Create, and the new passphrase in
	// ChangePassphrase); Unlock does not call it.
	ValidatePassphrase(kt keytype.KeyType, passphrase string) error
}

// NoopPolicy provides default no-op implementations of all three hooks
// so a concrete policy only needs to implement the hooks it cares about.
type NoopPolicy struct{}

func (NoopPolicy) ApplyKeyDefaults(*authoritykey.Key) error             { return nil }
func (NoopPolicy) ValidateKey(*authoritykey.Key) error                  { return nil }
func (NoopPolicy) ValidatePassphrase(keytype.KeyType, string) error     { return nil }

// Engine owns an ordered list of policies and runs each hook across all
// of them, short-circuiting on the first violation.
type Engine struct {
	policies []Policy
}

// NewEngine builds an engine from policies, applied in the given order.
func NewEngine(policies ...Policy) *Engine {
	return &Engine{policies: policies}
}

// Default returns the engine spec.md §4.6 prescribes as the default
// bundle: ExpirationPolicy then PassphraseStrengthPolicy.
func Default() *Engine {
	return NewEngine(NewExpirationPolicy(), NewPassphraseStrengthPolicy(nil))
}

// ApplyKeyDefaults runs ApplyKeyDefaults on every policy in order.
// ApplyKeyDefaults is idempotent when every constituent policy's hook is
// idempotent (property 12 of spec.md §8); ExpirationPolicy's
// implementation only sets an expiration when one is not already set, so
// running it twice yields identical metadata.
func (e *Engine) ApplyKeyDefaults(key *authoritykey.Key) error {
	for _, p := range e.policies {
		if err := p.ApplyKeyDefaults(key); err != nil {
			return err
		}
	}
	return nil
}

// ValidateKey runs ValidateKey on every policy in order, stopping at the
// first failure.
func (e *Engine) ValidateKey(key *authoritykey.Key) error {
	for _, p := range e.policies {
		if err := p.ValidateKey(key); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePassphrase runs ValidatePassphrase on every policy in order,
// stopping at the first failure.
func (e *Engine) ValidatePassphrase(kt keytype.KeyType, passphrase string) error {
	for _, p := range e.policies {
		if err := p.ValidatePassphrase(kt, passphrase); err != nil {
			return err
		}
	}
	return nil
}
