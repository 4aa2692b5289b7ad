// Package fields turns document text into the person, document and number
// fields of an ExtractionResult using the pattern registry.
package fields

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/patterns"
	"github.com/joseph-ayodele/idextract/internal/textnorm"
)

// Extractor is safe for concurrent use.
type Extractor struct {
	registry *patterns.Registry
	logger   *slog.Logger
}

// New returns an extractor over registry.
func New(registry *patterns.Registry, logger *slog.Logger) *Extractor {
	if registry == nil {
		registry = patterns.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{registry: registry, logger: logger}
}

// Extract builds a fresh result for text. Each generic rule is applied once and
// the first match is kept.
func (e *Extractor) Extract(text string, dt constants.DocumentType, country constants.Country) *entity.ExtractionResult {
	res := entity.NewExtractionResult()
	res.DocumentType = dt
	res.Country = country

	for _, f := range patterns.GenericFields {
		rule, ok := e.registry.Lookup(patterns.Generic, f)
		if !ok {
			continue
		}
		raw, ok := rule.Find(text)
		if !ok {
			continue
		}
		e.assign(res, f, raw)
	}

	if num, ok := e.documentNumber(res, text, dt, country); ok {
		res.DocumentNumber = &num
	}
	return res
}

func (e *Extractor) assign(res *entity.ExtractionResult, f patterns.Field, raw string) {
	p, d := &res.PersonalInfo, &res.DocumentInfo
	switch f {
	case patterns.FieldLastName:
		p.LastName = entity.Str(name(raw))
	case patterns.FieldFirstName:
		p.FirstName = entity.Str(name(raw))
	case patterns.FieldBirthPlace:
		p.BirthPlace = entity.Str(name(raw))
	case patterns.FieldNationality:
		p.Nationality = entity.Str(name(raw))
	case patterns.FieldGender:
		if g, ok := NormalizeGender(raw); ok {
			p.Gender = entity.Str(g)
		}
	case patterns.FieldAddress:
		p.Address = entity.Str(strings.TrimSpace(raw))
	case patterns.FieldProfession:
		p.Profession = entity.Str(textnorm.CollapseSpaces(cutAtLabel(raw)))
	case patterns.FieldIssuingAuthority:
		d.IssuingAuthority = entity.Str(textnorm.CollapseSpaces(raw))
	case patterns.FieldBirthDate:
		p.BirthDate = date(res, f, raw)
	case patterns.FieldIssueDate:
		d.IssueDate = date(res, f, raw)
	case patterns.FieldExpiryDate:
		d.ExpiryDate = date(res, f, raw)
	case patterns.FieldFatherName:
		res.SetInfo(entity.InfoFatherName, name(raw))
	case patterns.FieldMotherName:
		res.SetInfo(entity.InfoMotherName, name(raw))
	}
}

func name(raw string) string {
	return textnorm.Title(cutAtLabel(raw))
}

func date(res *entity.ExtractionResult, f patterns.Field, raw string) *entity.Date {
	d, ok := ParseDate(raw)
	if !ok {
		res.Warn(fmt.Sprintf("%s %q is not a valid date", f, strings.TrimSpace(raw)))
		return nil
	}
	return &d
}

// labelWords are folded words that start another field. A name captured on a
// line holding several labels is cut before the first of them.
var labelWords = map[string]struct{}{
	"nom": {}, "prenom": {}, "prenoms": {}, "surname": {}, "name": {}, "names": {},
	"given": {}, "sexe": {}, "sex": {}, "ne": {}, "nee": {}, "date": {}, "lieu": {},
	"nationalite": {}, "nationality": {}, "taille": {}, "height": {}, "adresse": {},
	"address": {}, "signature": {}, "profession": {}, "valable": {}, "expire": {},
	"delivree": {}, "delivre": {}, "place": {}, "birth": {}, "sexo": {},
}

func cutAtLabel(raw string) string {
	words := strings.Fields(raw)
	for i, w := range words {
		if _, ok := labelWords[textnorm.Fold(w)]; ok {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}
