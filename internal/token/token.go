package token

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultWidth is the number of hex characters in a derived token. Six keeps
// tokens short enough to copy by hand; the backend accepts longer values, so
// deployments that care about collision resistance can widen it via DeriveN.
const DefaultWidth = 6

// Derive produces the account token for a name/password pair. Deterministic:
// the same inputs always yield the same token, which is what lets a student
// log back in with nothing but the token.
func Derive(name, password string) string {
	return DeriveN(name, password, DefaultWidth)
}

// DeriveN is Derive with an explicit token width in hex characters.
func DeriveN(name, password string, width int) string {
	sum := sha256.Sum256([]byte(name + password))
	full := hex.EncodeToString(sum[:])
	if width <= 0 || width > len(full) {
		width = len(full)
	}
	return full[:width]
}

// Normalize strips surrounding double quotes and outer whitespace from a raw
// token. Key-value storage hands back JSON-quoted copies of tokens, and a
// quoted token fails authentication with no useful error, so every token that
// crosses a storage or network boundary passes through here first.
//
// Quote layers are stripped until the value is stable, which makes Normalize
// idempotent even for tokens where quoting accumulated across sessions.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	for len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
