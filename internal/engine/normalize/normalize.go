// Package normalize prepares raw text for vocabulary lookup.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Punctuation is the set of runes removed by Normalize. Apostrophes are
// deliberately absent so contractions stay intact.
const Punctuation = "!\"#$%&()*+,-./:;<=>?@[\\]^_`{|}~"

// Normalize lowercases text and removes every rune in Punctuation.
// Whitespace, digits and all other runes are preserved.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	// cases.Caser carries state, so one per call.
	lower := cases.Lower(language.Und).String(text)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if isPunctuation(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isPunctuation(r rune) bool {
	return r < 0x80 && strings.ContainsRune(Punctuation, r)
}
