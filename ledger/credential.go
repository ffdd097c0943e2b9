package ledger

import (
	"strings"
	"unicode"
)

// Label tokens users paste along with the key itself ("API Key: xxxx").
// Longest first so "api key" wins over "key".
var credentialLabels = []string{"api key", "apikey", "bearer", "key"}

// NormalizeCredential cleans a user-submitted credential: strips a leading
// label token (with optional colon) and removes all whitespace, including
// newlines from a sloppy paste. Idempotent — a clean credential comes back
// unchanged.
func NormalizeCredential(raw string) string {
	s := strings.TrimSpace(raw)

	lower := strings.ToLower(s)
	for _, label := range credentialLabels {
		if !strings.HasPrefix(lower, label) {
			continue
		}
		rest := s[len(label):]
		// Only treat it as a label when followed by a separator; a key
		// that genuinely starts with "key..." is left alone.
		if rest == "" {
			break
		}
		if r := rune(rest[0]); r != ':' && !unicode.IsSpace(r) {
			continue
		}
		s = strings.TrimPrefix(rest, ":")
		break
	}

	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
