package draw

import (
	"strings"
	"unicode/utf8"
)

// ParseNames splits raw participant text on commas and newlines, trims each
// fragment, drops empty ones and removes duplicates while keeping the first
// occurrence order. It never fails; blank input yields an empty slice.
func ParseNames(text string) []string {
	fragments := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	names := make([]string, 0, len(fragments))
	seen := make(map[string]struct{}, len(fragments))
	for _, fragment := range fragments {
		name := strings.TrimSpace(fragment)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// CountChars returns the number of characters in the raw participant text.
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// ClampWinnerCount keeps a requested winner count within [1, len(names)].
// With no names the upper bound is lifted so the count can be prepared
// before the list is typed in.
func ClampWinnerCount(count int, names []string) int {
	if count < 1 {
		return 1
	}
	if len(names) > 0 && count > len(names) {
		return len(names)
	}
	return count
}
