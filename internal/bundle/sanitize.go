// Package bundle assembles per-recipient credential bundles: in-memory
// ZIP archives holding the issued certificate, the private key, the
// device secret, and any supplementary key material.
package bundle

import "strings"

// DefaultLabel is used when a recipient has no usable display identifier.
const DefaultLabel = "certificate"

// SanitizeLabel maps an arbitrary display identifier to a safe archive
// entry label: lowercase, with every character outside [a-z0-9_-]
// replaced by '-'. Empty input maps to DefaultLabel. The function is
// total and idempotent.
func SanitizeLabel(label string) string {
	if label == "" {
		return DefaultLabel
	}

	var b strings.Builder
	b.Grow(len(label))
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z',
			r >= '0' && r <= '9',
			r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
