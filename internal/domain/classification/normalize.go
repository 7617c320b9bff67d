package classification

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// folder strips combining marks so "débardeur" and "debardeur" compare equal
var folder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases the text, folds diacritics and flattens punctuation
// to spaces. Keyword matching runs entirely on normalized strings, on both
// sides, so "Tee-Shirt" and "tee shirt" compare equal.
func Normalize(s string) string {
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := true
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// containsFold reports whether the normalized form of haystack contains the
// already-normalized needle
func containsFold(haystack, normalizedNeedle string) bool {
	return strings.Contains(Normalize(haystack), normalizedNeedle)
}

// containsWord reports whether the normalized text contains the normalized
// keyword on token boundaries. Normalize flattens punctuation to single
// spaces, so padding both sides is enough to keep "homme" from matching
// inside "hommage" or "men" inside "manettes".
func containsWord(normText, normKeyword string) bool {
	return strings.Contains(" "+normText+" ", " "+normKeyword+" ")
}
