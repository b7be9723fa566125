package strings

import (
	"strings"
)

// DefaultPreviewLen is the width of message and description previews in tables.
const DefaultPreviewLen = 60

// MinPreviewLen leaves room for one character plus "...".
const MinPreviewLen = 4

// Preview flattens s to a single line with collapsed whitespace and cuts it to
// maxLen runes, ending in "..." when cut. maxLen below MinPreviewLen is raised
// to MinPreviewLen.
func Preview(s string, maxLen int) string {
	if maxLen < MinPreviewLen {
		maxLen = MinPreviewLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
