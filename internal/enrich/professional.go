package enrich

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/patterns"
)

// Professional reads the registration number of a professional card. Lawyer,
// doctor and accountant rules are tried in that order.
type Professional struct {
	registry *patterns.Registry
	logger   *slog.Logger
}

func NewProfessional(registry *patterns.Registry, logger *slog.Logger) *Professional {
	if logger == nil {
		logger = slog.Default()
	}
	return &Professional{registry: registry, logger: logger}
}

func (p *Professional) Name() string { return "professional_card" }

func (p *Professional) Enrich(_ context.Context, text string, res *entity.ExtractionResult) {
	if res.DocumentType != constants.DocProfessionalCard {
		return
	}
	for _, lr := range p.registry.LicenseRules() {
		raw, ok := lr.Rule.Find(text)
		if !ok {
			continue
		}
		num := patterns.NormalizeNumber(raw)
		if !lr.Rule.Valid(num) {
			continue
		}
		res.DocumentNumber = &num
		res.SetInfo(entity.InfoProfessionType, lr.Profession)
		fillStr(&res.PersonalInfo.Profession, lr.Label)
		p.logger.Debug("enrich.professional", "profession", lr.Profession)
		return
	}
}
