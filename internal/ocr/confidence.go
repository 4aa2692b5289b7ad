package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\b\d{1,2}[./\- ]\d{1,2}[./\- ]\d{2,4}\b`)
	reLabel  = regexp.MustCompile(`(?i)\b(nom|pr[ée]nom|surname|given|n[ée]\(?e?\)? le|sexe|nationalit[ée]|date|passeport|passport|identit[ée]|s[ée]jour)\b`)
	reMRZ    = regexp.MustCompile(`[A-Z0-9]{5,}<{2,}`)
	reNumber = regexp.MustCompile(`\b[A-Z0-9]{6,}\b`)
)

func hasDatePattern(s string) bool   { return reDate.MatchString(s) }
func hasLabelPattern(s string) bool  { return reLabel.MatchString(s) }
func hasMRZPattern(s string) bool    { return reMRZ.MatchString(s) }
func hasNumberPattern(s string) bool { return reNumber.MatchString(s) }

// heuristicConfidence scores decoded text by the artifacts identity documents
// carry: field labels, dates, an MRZ, a long alphanumeric number.
func heuristicConfidence(txt string) float32 {
	score := float32(0.2)
	if hasLabelPattern(txt) {
		score += 0.2
	}
	if hasDatePattern(txt) {
		score += 0.15
	}
	if hasMRZPattern(strings.ToUpper(txt)) {
		score += 0.2
	}
	if hasNumberPattern(txt) {
		score += 0.1
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
