package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/patterns"
	"github.com/joseph-ayodele/idextract/internal/textnorm"
)

// TaxID replaces the document number of a tax_id document with the fiscal
// identifier and records which administration issued it.
type TaxID struct {
	registry *patterns.Registry
	logger   *slog.Logger
}

func NewTaxID(registry *patterns.Registry, logger *slog.Logger) *TaxID {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaxID{registry: registry, logger: logger}
}

func (t *TaxID) Name() string { return "tax_id" }

func (t *TaxID) Enrich(_ context.Context, text string, res *entity.ExtractionResult) {
	if res.DocumentType != constants.DocTaxID {
		return
	}

	for _, rule := range t.rules(res.Country) {
		raw, ok := rule.Rule.Find(text)
		if !ok {
			continue
		}
		num := strings.ToUpper(textnorm.StripSpaces(raw))
		if !rule.Rule.Valid(num) {
			res.Warn(fmt.Sprintf("tax number %q rejected: not a valid %s fiscal number", num, rule.Country))
			continue
		}
		res.DocumentNumber = &num
		res.SetInfo(entity.InfoTaxAuthority, rule.Authority)
		res.SetInfo(entity.InfoTaxType, rule.TaxType)
		if res.Country == constants.CountryUnknown {
			res.Country = rule.Country
		}
		t.logger.Debug("enrich.tax_id", "country", rule.Country, "tax_type", rule.TaxType)
		break
	}

	if authority, ok := t.registry.TaxAuthority().Find(text); ok {
		if v := textnorm.CollapseSpaces(authority); v != "" {
			res.DocumentInfo.IssuingAuthority = &v
		}
	}
}

// rules returns the country's fiscal rule, or every rule in declared order
// when the country is unknown.
func (t *TaxID) rules(c constants.Country) []patterns.TaxRule {
	if c == constants.CountryUnknown {
		return t.registry.TaxRules()
	}
	if r, ok := t.registry.TaxRule(c); ok {
		return []patterns.TaxRule{r}
	}
	return nil
}
