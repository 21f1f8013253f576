package database

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeSearch normalizes a name for keyword matching (lowercase, no
// diacritics, spaces for dashes). Employee names are stored alongside
// their normalized form so "jiri" finds "Jiří".
func NormalizeSearch(s string) string {
	s = RemoveDiacritics(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", " ")
	return s
}
