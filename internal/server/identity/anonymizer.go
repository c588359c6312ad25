// Package identity derives opaque voter tokens from raw state codes.
//
// The transform is deliberately unkeyed: the same credential must map to the
// same token on every request, on every replica, with no lookup table, or
// duplicate-vote prevention falls apart. Anonymity comes from the hash being
// one-way, not from a secret.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// TokenLength is the length of a hex-encoded voter token.
const TokenLength = 64

// minCredentialLength is the shortest state code accepted for lookup.
const minCredentialLength = 5

// Normalize canonicalizes a raw state code: surrounding whitespace is
// stripped and the code is upper-cased. Directory lookups and token
// derivation both go through this, so "kn/24a/0001 " and "KN/24A/0001"
// are the same voter.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Anonymize returns the voter token for a raw state code: SHA-256 of the
// normalized code, hex-encoded. Anonymize(x) == Anonymize(Normalize(x)).
func Anonymize(raw string) string {
	sum := sha256.Sum256([]byte(Normalize(raw)))
	return hex.EncodeToString(sum[:])
}

// ValidCredential reports whether a raw state code is plausible enough to
// look up. Rejecting junk here keeps malformed input out of the directory
// query path entirely.
func ValidCredential(raw string) bool {
	return len(Normalize(raw)) >= minCredentialLength
}
