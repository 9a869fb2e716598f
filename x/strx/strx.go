package strx

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Coalesce returns s if non-empty, otherwise d.
func Coalesce(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

var foldT = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold strips diacritics: "Zürich" -> "Zurich", "Genève" -> "Geneve".
// On transform failure the input is returned unchanged.
func Fold(s string) string {
	out, _, err := transform.String(foldT, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeKey lowercases, folds diacritics and collapses whitespace,
// producing a comparison key for stop and destination names.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(Fold(s))), " ")
}
