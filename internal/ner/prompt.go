package ner

import (
	"strings"
	"unicode/utf8"
)

func systemPrompt() string {
	return strings.Join([]string{
		"You read OCR text of identity documents (ID cards, passports, residence permits).",
		"Return ONLY a JSON object with the keys last_name, first_name and birth_place.",
		"Values are copied from the text as printed, without labels.",
		"Omit a key when the value is not present. Never output null or guesses.",
	}, " ")
}

func userPrompt(text string, maxChars int) string {
	var b strings.Builder
	b.WriteString("OCR text:\n")
	b.WriteString(truncate(text, maxChars))
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
