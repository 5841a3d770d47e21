package policy

import (
	"strings"
	"unicode"

	"github.com/padlokk/ignite/internal/ignerrors"
	"github.com/padlokk/ignite/internal/keytype"
)

const (
	minPassphraseLength = 12
	maxPassphraseLength = 256
)

// injectionPatterns is the fixed set of shell-metacharacter and
// control-byte substrings a passphrase must not contain, guarding
// against downstream shelling-out of passphrases by careless callers.
var injectionPatterns = []string{"$(", "`", ";", "&", "|", "\n", "\r", "\x00"}

// defaultCommonPasswords is a small built-in deny-list; callers can
// supply a larger list (e.g. loaded from a YAML fixture via
// ignconfig) by passing it to NewPassphraseStrengthPolicy.
var defaultCommonPasswords = []string{
	"password", "passw0rd", "123456", "12345678", "qwerty",
	"letmein", "admin", "welcome", "monkey", "dragon",
}

// PassphraseStrengthPolicy enforces the strength rules of spec.md §4.6.
type PassphraseStrengthPolicy struct {
	NoopPolicy
	CommonPasswords []string
}

// NewPassphraseStrengthPolicy builds the policy. A nil commonPasswords
// falls back to the small built-in list.
func NewPassphraseStrengthPolicy(commonPasswords []string) *PassphraseStrengthPolicy {
	if commonPasswords == nil {
		commonPasswords = defaultCommonPasswords
	}
	return &PassphraseStrengthPolicy{CommonPasswords: commonPasswords}
}

func (p *PassphraseStrengthPolicy) Name() string { return "passphrase_strength" }

// ValidatePassphrase enforces: length in [12,256]; at least 3 of
// {uppercase, lowercase, digit, non-alphanumeric}; not a case-insensitive
// substring match against the common-password list; and none of the
// fixed injection/control patterns.
func (p *PassphraseStrengthPolicy) ValidatePassphrase(_ keytype.KeyType, passphrase string) error {
	if len(passphrase) < minPassphraseLength || len(passphrase) > maxPassphraseLength {
		return ignerrors.NewOperation("validate_passphrase",
			"length must be between 12 and 256 characters", nil)
	}

	if classes := characterClasses(passphrase); classes < 3 {
		return ignerrors.NewOperation("validate_passphrase",
			"must contain at least 3 of: uppercase, lowercase, digit, symbol", nil)
	}

	lower := strings.ToLower(passphrase)
	for _, common := range p.CommonPasswords {
		if strings.Contains(lower, strings.ToLower(common)) {
			return ignerrors.NewOperation("validate_passphrase",
				"contains a common password", nil)
		}
	}

	for _, pattern := range injectionPatterns {
		if strings.Contains(passphrase, pattern) {
			return ignerrors.NewOperation("validate_passphrase",
				"contains a disallowed control or shell-metacharacter sequence", nil)
		}
	}

	return nil
}

func characterClasses(s string) int {
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			symbol = true
		}
	}
	count := 0
	for _, b := range []bool{upper, lower, digit, symbol} {
		if b {
			count++
		}
	}
	return count
}
