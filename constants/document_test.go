package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDocumentType(t *testing.T) {
	cases := map[string]DocumentType{
		"cni":              DocCNI,
		" Passport ":       DocPassport,
		"residence_permit": DocResidence,
		"tax_id":           DocTaxID,
		"":                 DocUnknown,
		"driving_licence":  DocUnknown,
	}
	for in, want := range cases {
		got, _ := ParseDocumentType(in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseCountry(t *testing.T) {
	got, ok := ParseCountry("FR")
	assert.True(t, ok)
	assert.Equal(t, CountryFR, got)

	got, ok = ParseCountry("us")
	assert.False(t, ok)
	assert.Equal(t, CountryUnknown, got)
}

func TestCountriesOrderIsStable(t *testing.T) {
	assert.Equal(t, []Country{CountryFR, CountryBE, CountryCH, CountryLU, CountryMA, CountryDZ, CountryTN}, Countries())
	assert.Len(t, DocumentTypes(), 6)
}

func TestMapExtToFormat(t *testing.T) {
	assert.Equal(t, PDF, MapExtToFormat(".PDF"))
	assert.Equal(t, IMAGE, MapExtToFormat("heic"))
	assert.Equal(t, TXT, MapExtToFormat(".txt"))
	assert.Equal(t, "", MapExtToFormat(".docx"))
	assert.True(t, IsHEIC(".HEIF"))
}
