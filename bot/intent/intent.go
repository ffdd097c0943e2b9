// Package intent classifies inbound text into the coarse tags the
// conversation flow branches on. Pure functions, no state.
package intent

import "strings"

type Intent string

const (
	Affirmative Intent = "affirmative"
	Negative    Intent = "negative"
	Other       Intent = "other"
)

// Classify tags free-form text. Matching is deliberately loose: "Yes please"
// and "yes!" both read as affirmative, mirroring how users actually answer.
func Classify(text string) Intent {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(lower, "yes"):
		return Affirmative
	case strings.Contains(lower, "no"):
		return Negative
	default:
		return Other
	}
}

// IsReset reports whether the text is the reset command: an exact
// case-insensitive "reset" after trimming surrounding whitespace.
func IsReset(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "reset")
}
