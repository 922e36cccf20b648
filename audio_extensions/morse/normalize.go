package morse

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize upper-cases text and folds accented letters to their base
// letter ("café" -> "CAFE") so they can be keyed. Characters without a
// pattern are left in place; the sender skips them.
func Normalize(text string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, text)
	if err != nil {
		folded = text
	}
	return cases.Upper(language.Und).String(folded)
}

// Patterns returns the pattern of every keyable character of text, in
// order. Word gaps are returned as WordGap.
func Patterns(text string) []string {
	var out []string
	for _, r := range Normalize(text) {
		if p, ok := Lookup(r); ok {
			out = append(out, p)
		}
	}
	return out
}

// Encode renders text as dots and dashes, characters separated by a space
// and words by " / ". Used for logging the signature.
func Encode(text string) string {
	var sb strings.Builder
	gap := false
	for _, p := range Patterns(text) {
		if p == WordGap {
			gap = sb.Len() > 0
			continue
		}
		switch {
		case gap:
			sb.WriteString(" / ")
		case sb.Len() > 0:
			sb.WriteByte(' ')
		}
		sb.WriteString(p)
		gap = false
	}
	return sb.String()
}
