// Package textnorm folds and re-cases OCR text so keyword and label matching
// can ignore accents, case and typographic punctuation.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"ʼ", "'",
	"`", "'",
	"´", "'",
)

// Fold lowercases s, strips combining marks and maps typographic apostrophes to
// ASCII. Non-Latin scripts pass through unchanged apart from case.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(apostrophes.Replace(out))
}

// Title title-cases names and places ("DUPONT" -> "Dupont", "jean-luc" -> "Jean-Luc").
func Title(s string) string {
	s = CollapseSpaces(s)
	if s == "" {
		return ""
	}
	return cases.Title(language.French).String(strings.ToLower(s))
}

// CollapseSpaces trims s and squeezes internal runs of whitespace to a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripSpaces removes every whitespace rune.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
