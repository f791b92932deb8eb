package output

import "unicode/utf8"

// StandardTextLimit caps the text echoed in standard verdicts, in runes.
const StandardTextLimit = 500

// truncate shortens s to at most maxRunes runes plus "...". It never splits
// a multi-byte rune.
func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
