// Package redact classifies configuration keys as sensitive and
// produces safe display forms of their values.
//
// Every path that could expose configuration to a remote model must
// pass values through this policy first. Raw values are permitted only
// in output consumed directly by the local operator.
package redact

import (
	"fmt"
	"strings"
)

// Substrings that mark a key as sensitive. Matching is case-insensitive.
var sensitiveFragments = []string{
	"key",
	"secret",
	"token",
	"password",
	"passphrase",
	"credential",
	"email",
	"username",
	"name",
}

// maskPrefixLen is how many leading characters of a sensitive value are
// allowed to appear in its masked form.
const maskPrefixLen = 4

// IsSensitiveKey reports whether a configuration key holds a value that
// must never reach a remote model in raw form.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range sensitiveFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// MaskValue returns a placeholder exposing only the value's length and
// a short prefix. The empty string maps to an explicit "not set" form
// so presence remains observable. Length and prefix are counted in
// characters, not bytes, so multibyte values mask cleanly.
func MaskValue(value string) string {
	if value == "" {
		return "<not set>"
	}
	runes := []rune(value)
	if len(runes) <= maskPrefixLen {
		return fmt.Sprintf("<redacted: %d chars>", len(runes))
	}
	return fmt.Sprintf("<redacted: %d chars, starts with %q>", len(runes), string(runes[:maskPrefixLen]))
}

// Display returns value unchanged for non-sensitive keys and the masked
// form for sensitive ones.
func Display(key, value string) string {
	if IsSensitiveKey(key) {
		return MaskValue(value)
	}
	return value
}
