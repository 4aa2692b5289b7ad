package fields

import (
	"fmt"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/patterns"
)

// documentNumber tries the jurisdiction rule for the resolved type, then the
// generic "number near a keyword" rule. Every candidate is normalized and
// checked against the jurisdiction format, or the generic format when the
// jurisdiction defines none. Rejected values are reported as warnings.
func (e *Extractor) documentNumber(res *entity.ExtractionResult, text string, dt constants.DocumentType, country constants.Country) (string, bool) {
	jurisdictionRule, hasJurisdiction := e.registry.NumberRule(country, dt)

	var candidates []*patterns.Rule
	if hasJurisdiction {
		candidates = append(candidates, jurisdictionRule)
	}
	if generic, ok := e.registry.Lookup(patterns.Generic, patterns.FieldDocumentNumber); ok {
		candidates = append(candidates, generic)
	}

	seen := make(map[string]struct{})
	for _, rule := range candidates {
		for _, raw := range rule.Matches(text) {
			num := patterns.NormalizeNumber(raw)
			if _, dup := seen[num]; dup || num == "" {
				continue
			}
			seen[num] = struct{}{}
			if ValidNumber(e.registry, country, dt, num) {
				return num, true
			}
			res.Warn(fmt.Sprintf("document_number %q rejected: not a valid %s", num, formatName(country, dt, hasJurisdiction)))
			e.logger.Debug("document number rejected", "value", num, "country", country, "document_type", dt)
		}
	}
	return "", false
}

// ValidNumber checks a normalized number against the (country, type) format, or
// the generic format when none is defined.
func ValidNumber(reg *patterns.Registry, country constants.Country, dt constants.DocumentType, num string) bool {
	if rule, ok := reg.NumberRule(country, dt); ok {
		return rule.Valid(num)
	}
	return patterns.ValidGeneric(num)
}

func formatName(country constants.Country, dt constants.DocumentType, jurisdiction bool) string {
	if !jurisdiction {
		return "document number"
	}
	return fmt.Sprintf("%s %s number", country, dt)
}
