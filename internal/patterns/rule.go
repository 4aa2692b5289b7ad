package patterns

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/idextract/internal/textnorm"
)

// genericNumberValidator accepts any normalized number when a jurisdiction does
// not define its own format.
var genericNumberValidator = regexp.MustCompile(`^[A-Z0-9]{6,20}$`)

// Rule is an ordered list of candidate expressions for one field. Candidates are
// tried in order and the first match wins. The value is the first capture group,
// or the whole match when the expression has no groups.
type Rule struct {
	field      Field
	candidates []*regexp.Regexp
	validator  *regexp.Regexp
	source     string
}

// NewRule compiles the candidate expressions and the optional anchored validator.
func NewRule(field Field, validator string, candidates ...string) (*Rule, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("rule %s: no candidates", field)
	}
	r := &Rule{field: field, source: SourceBuiltin}
	for _, c := range candidates {
		re, err := regexp.Compile(c)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", field, err)
		}
		r.candidates = append(r.candidates, re)
	}
	if validator != "" {
		re, err := regexp.Compile(validator)
		if err != nil {
			return nil, fmt.Errorf("rule %s validator: %w", field, err)
		}
		r.validator = re
	}
	return r, nil
}

func mustRule(field Field, validator string, candidates ...string) *Rule {
	r, err := NewRule(field, validator, candidates...)
	if err != nil {
		panic(err)
	}
	return r
}

// Field returns the field the rule extracts.
func (r *Rule) Field() Field { return r.field }

// Source is "builtin" or the path of the pattern file that supplied the rule.
func (r *Rule) Source() string { return r.source }

// Find returns the value of the first matching candidate.
func (r *Rule) Find(text string) (string, bool) {
	for _, re := range r.candidates {
		if v, ok := submatch(re, text); ok {
			return v, true
		}
	}
	return "", false
}

// Matches returns one value per matching candidate, in candidate order.
func (r *Rule) Matches(text string) []string {
	var out []string
	for _, re := range r.candidates {
		if v, ok := submatch(re, text); ok {
			out = append(out, v)
		}
	}
	return out
}

// Valid checks a normalized value against the rule's validator, or against the
// generic number format when the rule has none.
func (r *Rule) Valid(value string) bool {
	if r.validator != nil {
		return r.validator.MatchString(value)
	}
	return genericNumberValidator.MatchString(value)
}

// HasValidator reports whether the rule carries its own format check.
func (r *Rule) HasValidator() bool { return r.validator != nil }

// Patterns returns the candidate sources, in order.
func (r *Rule) Patterns() []string {
	out := make([]string, len(r.candidates))
	for i, re := range r.candidates {
		out[i] = re.String()
	}
	return out
}

// ValidatorPattern returns the validator source, or "".
func (r *Rule) ValidatorPattern() string {
	if r.validator == nil {
		return ""
	}
	return r.validator.String()
}

// NormalizeNumber removes every whitespace rune and upper-cases the value.
func NormalizeNumber(v string) string {
	return strings.ToUpper(textnorm.StripSpaces(v))
}

// ValidGeneric checks a normalized number against the jurisdiction-free format.
func ValidGeneric(value string) bool {
	return genericNumberValidator.MatchString(value)
}

func submatch(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if len(m) == 1 {
		return m[0], m[0] != ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return g, true
		}
	}
	return "", false
}
