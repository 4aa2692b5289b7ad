package enrich

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/extract"
	"github.com/joseph-ayodele/idextract/internal/mrz"
	"github.com/joseph-ayodele/idextract/internal/patterns"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newResult(dt constants.DocumentType, c constants.Country) *entity.ExtractionResult {
	res := entity.NewExtractionResult()
	res.DocumentType, res.Country = dt, c
	return res
}

func TestTaxIDOverridesGenericNumber(t *testing.T) {
	text := "AVIS D'IMPOSITION\nN° AB123456\nNuméro fiscal: 12 34 567 890 123\n" +
		"Centre des Finances Publiques de Lyon\n"
	res := newResult(constants.DocTaxID, constants.CountryFR)
	res.DocumentNumber = entity.Str("AB123456")
	res.DocumentInfo.IssuingAuthority = entity.Str("Mairie")

	NewTaxID(patterns.Default(), quietLogger()).Enrich(context.Background(), text, res)

	require.NotNil(t, res.DocumentNumber)
	assert.Equal(t, "1234567890123", *res.DocumentNumber)
	assert.Equal(t, "Direction Générale des Finances Publiques (DGFiP)", res.AdditionalInfo[entity.InfoTaxAuthority])
	assert.Equal(t, "Numéro fiscal de référence (SPI)", res.AdditionalInfo[entity.InfoTaxType])
	assert.Equal(t, "Centre des Finances Publiques de Lyon", entity.Deref(res.DocumentInfo.IssuingAuthority))
}

func TestTaxIDUnknownCountryScansEveryJurisdiction(t *testing.T) {
	res := newResult(constants.DocTaxID, constants.CountryUnknown)
	NewTaxID(patterns.Default(), quietLogger()).Enrich(context.Background(), "Numéro d'entreprise BE 0123.456.789", res)

	require.NotNil(t, res.DocumentNumber)
	assert.Equal(t, "BE0123.456.789", *res.DocumentNumber)
	assert.Equal(t, constants.CountryBE, res.Country)
	assert.Equal(t, "SPF Finances", res.AdditionalInfo[entity.InfoTaxAuthority])
}

func TestTaxIDIgnoresOtherTypes(t *testing.T) {
	res := newResult(constants.DocCNI, constants.CountryFR)
	res.DocumentNumber = entity.Str("123456789012")
	NewTaxID(patterns.Default(), quietLogger()).Enrich(context.Background(), "Numéro fiscal: 1234567890123", res)

	assert.Equal(t, "123456789012", *res.DocumentNumber)
	assert.Nil(t, res.AdditionalInfo)
}

func TestProfessional(t *testing.T) {
	e := NewProfessional(patterns.Default(), quietLogger())

	t.Run("lawyer", func(t *testing.T) {
		res := newResult(constants.DocProfessionalCard, constants.CountryFR)
		e.Enrich(context.Background(), "ORDRE DES AVOCATS\nToque n° c1234\n", res)
		require.NotNil(t, res.DocumentNumber)
		assert.Equal(t, "C1234", *res.DocumentNumber)
		assert.Equal(t, patterns.ProfessionLawyer, res.AdditionalInfo[entity.InfoProfessionType])
		assert.Equal(t, "Avocat", entity.Deref(res.PersonalInfo.Profession))
	})

	t.Run("doctor keeps extracted profession", func(t *testing.T) {
		res := newResult(constants.DocProfessionalCard, constants.CountryFR)
		res.PersonalInfo.Profession = entity.Str("Médecin généraliste")
		e.Enrich(context.Background(), "Carte de professionnel de santé\nRPPS: 10101234567", res)
		require.NotNil(t, res.DocumentNumber)
		assert.Equal(t, "10101234567", *res.DocumentNumber)
		assert.Equal(t, patterns.ProfessionDoctor, res.AdditionalInfo[entity.InfoProfessionType])
		assert.Equal(t, "Médecin généraliste", entity.Deref(res.PersonalInfo.Profession))
	})

	t.Run("no license number", func(t *testing.T) {
		res := newResult(constants.DocProfessionalCard, constants.CountryFR)
		e.Enrich(context.Background(), "Carte professionnelle", res)
		assert.Nil(t, res.DocumentNumber)
		assert.Nil(t, res.AdditionalInfo)
	})
}

type fakeRecognizer struct {
	ents  extract.Entities
	err   error
	calls int
}

func (f *fakeRecognizer) Recognize(context.Context, string) (extract.Entities, error) {
	f.calls++
	return f.ents, f.err
}

func TestNERFillsOnlyUnsetFields(t *testing.T) {
	rec := &fakeRecognizer{ents: extract.Entities{LastName: "MARTIN", FirstName: "paul", BirthPlace: "LYON", Model: "test"}}
	res := newResult(constants.DocCNI, constants.CountryFR)
	res.PersonalInfo.LastName = entity.Str("Dupont")

	NewNER(rec, quietLogger()).Enrich(context.Background(), "some text", res)

	assert.Equal(t, "Dupont", entity.Deref(res.PersonalInfo.LastName))
	assert.Equal(t, "Paul", entity.Deref(res.PersonalInfo.FirstName))
	assert.Equal(t, "Lyon", entity.Deref(res.PersonalInfo.BirthPlace))
}

func TestNERErrorsAreSwallowed(t *testing.T) {
	rec := &fakeRecognizer{err: errors.New("model unavailable")}
	res := newResult(constants.DocCNI, constants.CountryFR)

	NewNER(rec, quietLogger()).Enrich(context.Background(), "some text", res)

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, entity.PersonalInfo{}, res.PersonalInfo)
}

func TestNERSkippedWhenNothingToFill(t *testing.T) {
	rec := &fakeRecognizer{}
	res := newResult(constants.DocCNI, constants.CountryFR)
	res.PersonalInfo.LastName = entity.Str("Dupont")
	res.PersonalInfo.FirstName = entity.Str("Marie")
	res.PersonalInfo.BirthPlace = entity.Str("Paris")

	NewNER(rec, quietLogger()).Enrich(context.Background(), "some text", res)
	NewNER(rec, quietLogger()).Enrich(context.Background(), "   ", newResult(constants.DocCNI, constants.CountryFR))
	assert.Zero(t, rec.calls)
}

func frenchPassportMRZ() string {
	number := "12AB34567"
	line2 := number + string(mrz.CheckDigit(number)) + "FRA" +
		"850415" + string(mrz.CheckDigit("850415")) + "F" +
		"300101" + string(mrz.CheckDigit("300101"))
	pad := func(s string) string { return s + strings.Repeat("<", 44-len(s)) }
	return pad("P<FRADUPONT<<MARIE<CLAIRE") + "\n" + pad(line2) + "\n"
}

func TestMRZFillsUnsetFields(t *testing.T) {
	res := newResult(constants.DocPassport, constants.CountryFR)
	res.PersonalInfo.LastName = entity.Str("Dupond")

	NewMRZ(patterns.Default(), quietLogger()).Enrich(context.Background(), frenchPassportMRZ(), res)

	p := res.PersonalInfo
	assert.Equal(t, "Dupond", entity.Deref(p.LastName))
	assert.Equal(t, "Marie Claire", entity.Deref(p.FirstName))
	assert.Equal(t, "F", entity.Deref(p.Gender))
	assert.Equal(t, "Française", entity.Deref(p.Nationality))
	require.NotNil(t, p.BirthDate)
	assert.Equal(t, "1985-04-15", p.BirthDate.String())
	require.NotNil(t, res.DocumentInfo.ExpiryDate)
	assert.Equal(t, "2030-01-01", res.DocumentInfo.ExpiryDate.String())
	require.NotNil(t, res.DocumentNumber)
	assert.Equal(t, "12AB34567", *res.DocumentNumber)
	assert.Equal(t, "TD3", res.AdditionalInfo[entity.InfoMRZ])
}

func TestChainStopsOnCancelledContext(t *testing.T) {
	rec := &fakeRecognizer{ents: extract.Entities{LastName: "Martin"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newResult(constants.DocCNI, constants.CountryFR)
	Chain{NewNER(rec, quietLogger())}.Enrich(ctx, "text", res)
	assert.Zero(t, rec.calls)
}
