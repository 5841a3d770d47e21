// Package proof implements the authority proof protocol: signed claims
// (parent asserts control of child), signed subject receipts (child
// acknowledges parent), and the canonical JSON used as the digest/signing
// input for both.
//
// The canonical form is deliberately NOT produced by a generic JSON
// encoder: it is a single-line object with keys in a fixed, spec-defined
// order and no incidental whitespace, because its bytes are the input to
// a SHA-256 that is later signed. Two producers must agree on every byte.
package proof

import (
	"strings"
	"time"
)

// formatTimestamp renders t as RFC-3339 with microsecond precision and an
// explicit numeric offset (typically "+00:00" for UTC), matching
// spec.md's canonical timestamp form.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000-07:00")
}

// escapeJSONString JSON-escapes s for inclusion in the canonical form.
// Inputs are assumed ASCII-safe or pre-normalized per spec.md §4.3; no
// NFC/NFD normalization is performed.
func escapeJSONString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString("\\u")
				const hex = "0123456789abcdef"
				b.WriteByte(hex[(r>>12)&0xF])
				b.WriteByte(hex[(r>>8)&0xF])
				b.WriteByte(hex[(r>>4)&0xF])
				b.WriteByte(hex[r&0xF])
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// field renders a "key":value pair for the canonical object body. value
// must already be a complete JSON value (e.g. from escapeJSONString).
func field(key, value string) string {
	return escapeJSONString(key) + ":" + value
}
