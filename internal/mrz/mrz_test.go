package mrz

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/idextract/constants"
)

var refNow = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func fill(s string, width int) string {
	return s + strings.Repeat("<", width-len(s))
}

func TestCheckDigit(t *testing.T) {
	assert.Equal(t, byte('6'), CheckDigit("L898902C3"))
	assert.Equal(t, byte('2'), CheckDigit("740812"))
	assert.Equal(t, byte('9'), CheckDigit("120415"))
	assert.Equal(t, byte('7'), CheckDigit("D23145890"))
}

func TestFindTD3(t *testing.T) {
	text := "PASSPORT\nsome header\n" +
		"P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<\n" +
		"L898902C36UTO7408122F1204159ZE184226B<<<<<10\n"

	z, ok := FindAt(text, refNow)
	require.True(t, ok)
	assert.Equal(t, TD3, z.Format)
	assert.Equal(t, "P", z.DocumentCode)
	assert.Equal(t, "UTO", z.IssuingState)
	assert.Equal(t, "L898902C3", z.DocumentNumber)
	assert.True(t, z.NumberCheck)
	assert.True(t, z.DatesCheck)
	assert.Equal(t, "ERIKSSON", z.LastName)
	assert.Equal(t, "ANNA MARIA", z.FirstName)
	assert.Equal(t, constants.GenderFemale, z.Sex)
	require.NotNil(t, z.BirthDate)
	assert.Equal(t, "1974-08-12", z.BirthDate.String())
	require.NotNil(t, z.ExpiryDate)
	assert.Equal(t, "2012-04-15", z.ExpiryDate.String())
	assert.Equal(t, constants.DocPassport, z.DocumentType())
	assert.Equal(t, constants.CountryUnknown, z.Country())
}

func TestFindTD1WithSpacesAndDroppedFillers(t *testing.T) {
	text := "I<UTOD231458907<<<<<<<<<<<<\n" +
		"7408122F1204159UTO <<<<<<<<<<<6\n" +
		"ERIKSSON<<ANNA<MARIA<<<<<<<<<<\n"

	z, ok := FindAt(text, refNow)
	require.True(t, ok)
	assert.Equal(t, TD1, z.Format)
	assert.Equal(t, "D23145890", z.DocumentNumber)
	assert.True(t, z.NumberCheck)
	assert.True(t, z.DatesCheck)
	assert.Equal(t, constants.DocCNI, z.DocumentType())
}

func TestFindFrenchPassport(t *testing.T) {
	number := "12AB34567"
	line2 := number + string(CheckDigit(number)) + "FRA" +
		"850415" + string(CheckDigit("850415")) + "M" +
		"300101" + string(CheckDigit("300101"))
	text := fill("P<FRADUPONT<<JEAN<PIERRE", 44) + "\n" + fill(line2, 44)

	z, ok := FindAt(text, refNow)
	require.True(t, ok)
	assert.Equal(t, constants.CountryFR, z.Country())
	assert.Equal(t, "DUPONT", z.LastName)
	assert.Equal(t, "JEAN PIERRE", z.FirstName)
	assert.Equal(t, constants.GenderMale, z.Sex)
	assert.Equal(t, "1985-04-15", z.BirthDate.String())
	assert.Equal(t, "2030-01-01", z.ExpiryDate.String())
	assert.True(t, z.NumberCheck)
}

func TestBadCheckDigitIsReported(t *testing.T) {
	text := "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<\n" +
		"L898902C35UTO7408122F1204159ZE184226B<<<<<10\n"
	z, ok := FindAt(text, refNow)
	require.True(t, ok)
	assert.False(t, z.NumberCheck)
}

func TestNoZone(t *testing.T) {
	for _, text := range []string{"", "Nom: DUPONT\nPrénom: MARIE", "<<<<\n<<<<"} {
		_, ok := FindAt(text, refNow)
		assert.False(t, ok, text)
	}
}

func TestDocumentTypeCodes(t *testing.T) {
	tests := map[string]constants.DocumentType{
		"P":  constants.DocPassport,
		"PO": constants.DocPassport,
		"ID": constants.DocCNI,
		"I":  constants.DocCNI,
		"IR": constants.DocResidence,
		"TS": constants.DocResidence,
		"V":  constants.DocVisa,
		"X":  constants.DocUnknown,
		"":   constants.DocUnknown,
	}
	for code, want := range tests {
		assert.Equal(t, want, (&Zone{DocumentCode: code}).DocumentType(), code)
	}
}
