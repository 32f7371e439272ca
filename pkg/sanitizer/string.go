package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses internal whitespace
// runs into single spaces.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeName cleans user display names before storage.
func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeRoom uppercases and cleans room identifiers ("1a" -> "1A").
func NormalizeRoom(room string) string {
	return strings.ToUpper(TrimAndNormalize(room))
}

// NormalizeReason cleans free-text cancellation reasons.
func NormalizeReason(reason string) string {
	return TrimAndNormalize(reason)
}
