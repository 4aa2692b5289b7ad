package enrich

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/mrz"
	"github.com/joseph-ayodele/idextract/internal/patterns"
	"github.com/joseph-ayodele/idextract/internal/textnorm"
)

// MRZ fills unset fields from a machine readable zone. Values whose check
// digit fails are ignored.
type MRZ struct {
	registry *patterns.Registry
	logger   *slog.Logger
}

func NewMRZ(registry *patterns.Registry, logger *slog.Logger) *MRZ {
	if logger == nil {
		logger = slog.Default()
	}
	return &MRZ{registry: registry, logger: logger}
}

func (m *MRZ) Name() string { return "mrz" }

func (m *MRZ) Enrich(_ context.Context, text string, res *entity.ExtractionResult) {
	z, ok := mrz.Find(text)
	if !ok {
		return
	}
	res.SetInfo(entity.InfoMRZ, string(z.Format))

	p, d := &res.PersonalInfo, &res.DocumentInfo
	fillStr(&p.LastName, textnorm.Title(z.LastName))
	fillStr(&p.FirstName, textnorm.Title(z.FirstName))
	fillStr(&p.Gender, z.Sex)
	if c := mrz.CountryOf(z.Nationality); c != constants.CountryUnknown {
		fillStr(&p.Nationality, nationalityName[c])
	}
	if z.DatesCheck {
		if p.BirthDate == nil && z.BirthDate != nil {
			bd := *z.BirthDate
			p.BirthDate = &bd
		}
		if d.ExpiryDate == nil && z.ExpiryDate != nil {
			ed := *z.ExpiryDate
			d.ExpiryDate = &ed
		}
	}
	if z.NumberCheck && res.DocumentNumber == nil {
		num := patterns.NormalizeNumber(z.DocumentNumber)
		if m.valid(res, num) {
			res.DocumentNumber = &num
		}
	}
	m.logger.Debug("enrich.mrz", "format", z.Format, "number_check", z.NumberCheck, "dates_check", z.DatesCheck)
}

// valid applies the same format check the field extractor uses.
func (m *MRZ) valid(res *entity.ExtractionResult, num string) bool {
	if rule, ok := m.registry.NumberRule(res.Country, res.DocumentType); ok {
		return rule.Valid(num)
	}
	return patterns.ValidGeneric(num)
}

var nationalityName = map[constants.Country]string{
	constants.CountryFR: "Française",
	constants.CountryBE: "Belge",
	constants.CountryCH: "Suisse",
	constants.CountryLU: "Luxembourgeoise",
	constants.CountryMA: "Marocaine",
	constants.CountryDZ: "Algérienne",
	constants.CountryTN: "Tunisienne",
}
