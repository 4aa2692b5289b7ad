package patterns

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/idextract/constants"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestBuiltinNumberRules(t *testing.T) {
	reg := Default()

	samples := map[constants.Country]map[constants.DocumentType]string{
		constants.CountryFR: {constants.DocCNI: "1234 5678 9012", constants.DocPassport: "12AB34567", constants.DocResidence: "1234567890"},
		constants.CountryBE: {constants.DocCNI: "592 1234567 89", constants.DocPassport: "EN123456", constants.DocResidence: "B 1234567 89"},
		constants.CountryCH: {constants.DocCNI: "C1234567", constants.DocPassport: "X1234567", constants.DocResidence: "AB1234567"},
		constants.CountryLU: {constants.DocCNI: "1985 04 15 12345", constants.DocPassport: "LX123456", constants.DocResidence: "R1234567"},
		constants.CountryMA: {constants.DocCNI: "BK123456", constants.DocPassport: "AB1234567", constants.DocResidence: "R12345678"},
		constants.CountryDZ: {constants.DocCNI: "123456789 123456789", constants.DocPassport: "123456789", constants.DocResidence: "A123456789"},
		constants.CountryTN: {constants.DocCNI: "12345678", constants.DocPassport: "M123456", constants.DocResidence: "TS123456"},
	}

	for country, byType := range samples {
		for dt, sample := range byType {
			t.Run(string(country)+"/"+string(dt), func(t *testing.T) {
				rule, ok := reg.NumberRule(country, dt)
				require.True(t, ok)
				assert.True(t, rule.HasValidator())

				got, ok := rule.Find("Numéro du document : " + sample + "\n")
				require.True(t, ok, "pattern %v", rule.Patterns())
				assert.Equal(t, sample, got)
				assert.True(t, rule.Valid(stripSpaces(got)))
			})
		}
	}
}

func stripSpaces(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r != ' ' {
			out = append(out, r)
		}
	}
	return string(out)
}

func TestNumberRuleDoesNotMatchInsideLongerRun(t *testing.T) {
	rule, ok := Default().NumberRule(constants.CountryTN, constants.DocCNI)
	require.True(t, ok)
	_, found := rule.Find("ref 1234567890123")
	assert.False(t, found)
}

func TestLookupMisses(t *testing.T) {
	reg := Default()
	_, ok := reg.Lookup(ForCountry(constants.CountryUnknown), NumberField(constants.DocCNI))
	assert.False(t, ok)

	_, ok = reg.Lookup(Generic, "shoe_size")
	assert.False(t, ok)

	_, ok = reg.NumberRule(constants.CountryFR, constants.DocVisa)
	assert.False(t, ok)
}

func TestGenericRules(t *testing.T) {
	reg := Default()
	text := "Nom: DUPONT\nPrénom: MARIE\nNé(e) le: 15/04/1985\nLieu de naissance : PARIS\nSexe: F\n" +
		"Nationalité: Française\nAdresse: 12 rue des Lilas 75011 Paris\nDélivrée le 01.02.2020 par Préfecture de Police\n" +
		"N° 1234 5678 9012"

	tests := []struct {
		field Field
		want  string
	}{
		{FieldLastName, "DUPONT"},
		{FieldFirstName, "MARIE"},
		{FieldBirthDate, "15/04/1985"},
		{FieldBirthPlace, "PARIS"},
		{FieldGender, "F"},
		{FieldNationality, "Française"},
		{FieldAddress, "12 rue des Lilas 75011 Paris"},
		{FieldIssueDate, "01.02.2020"},
		{FieldDocumentNumber, "1234 5678 9012"},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			rule, ok := reg.Lookup(Generic, tt.field)
			require.True(t, ok)
			got, ok := rule.Find(text)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLastNameLabelIsNotMatchedInsidePrenom(t *testing.T) {
	rule, _ := Default().Lookup(Generic, FieldLastName)
	_, ok := rule.Find("Prénom: MARIE")
	assert.False(t, ok)
}

func TestLastNameColonCandidateWins(t *testing.T) {
	rule, _ := Default().Lookup(Generic, FieldLastName)
	got, ok := rule.Find("NOM MARTIN\nNom: DURAND")
	require.True(t, ok)
	assert.Equal(t, "DURAND", got)
	assert.Equal(t, []string{"DURAND", "MARTIN"}, rule.Matches("NOM MARTIN\nNom: DURAND"))
}

func TestTaxAndLicenseTables(t *testing.T) {
	reg := Default()

	tax := reg.TaxRules()
	require.Len(t, tax, len(constants.Countries()))
	for i, c := range constants.Countries() {
		assert.Equal(t, c, tax[i].Country)
	}

	fr, ok := reg.TaxRule(constants.CountryFR)
	require.True(t, ok)
	got, ok := fr.Rule.Find("Numéro fiscal : 01 23 456 789 012")
	require.True(t, ok)
	assert.Equal(t, "01 23 456 789 012", got)

	authority, ok := reg.TaxAuthority().Find("SERVICE DES IMPOTS DES PARTICULIERS DE LYON\nAvis")
	require.True(t, ok)
	assert.Equal(t, "SERVICE DES IMPOTS DES PARTICULIERS DE LYON", authority)

	lic := reg.LicenseRules()
	require.Len(t, lic, 3)
	assert.Equal(t, []string{ProfessionLawyer, ProfessionDoctor, ProfessionAccountant},
		[]string{lic[0].Profession, lic[1].Profession, lic[2].Profession})
	rpps, ok := lic[1].Rule.Find("N° RPPS : 10101234567")
	require.True(t, ok)
	assert.Equal(t, "10101234567", rpps)
}

func TestExternalFileOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "10-fr.json", `{
		"patterns": {"fr": {"cni": ["X(\\d{6})", "Y(\\d{6})"]}, "generic": {"profession": "Métier\\s*:\\s*(\\p{L}+)"}},
		"validators": {"fr": {"cni": "^\\d{6}$"}}
	}`)

	reg := New(Config{Dir: dir}, quietLogger())
	require.Len(t, reg.Report().Loaded, 1)
	assert.Empty(t, reg.Report().Skipped)

	rule, ok := reg.NumberRule(constants.CountryFR, constants.DocCNI)
	require.True(t, ok)
	got, ok := rule.Find("doc Y123456")
	require.True(t, ok)
	assert.Equal(t, "123456", got)
	assert.True(t, rule.Valid("123456"))
	assert.False(t, rule.Valid("123456789012"))
	assert.Equal(t, filepath.Join(dir, "10-fr.json"), rule.Source())

	// untouched rules keep their built-in definition
	pass, ok := reg.NumberRule(constants.CountryFR, constants.DocPassport)
	require.True(t, ok)
	assert.Equal(t, SourceBuiltin, pass.Source())
}

func TestExternalRuleWithoutValidatorFallsBackToGenericFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tn.json", `{"patterns": {"tn": {"passport": "P-(\\w+)"}}}`)

	reg := New(Config{Dir: dir}, quietLogger())
	rule, ok := reg.NumberRule(constants.CountryTN, constants.DocPassport)
	require.True(t, ok)
	assert.False(t, rule.HasValidator())
	assert.True(t, rule.Valid("AB12345"))
	assert.False(t, rule.Valid("AB1"))
}

func TestMalformedFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	bad := map[string]string{
		"a-json.json":      `{"patterns": `,
		"b-schema.json":    `{"patterns": {"fr": {"cni": 42}}}`,
		"c-regexp.json":    `{"patterns": {"fr": {"cni": "(unclosed"}}}`,
		"d-country.json":   `{"patterns": {"xx": {"cni": "\\d+"}}}`,
		"e-field.json":     `{"patterns": {"fr": {"shoe_size": "\\d+"}}}`,
		"f-validator.json": `{"patterns": {"fr": {"cni": "\\d+"}}, "validators": {"be": {"cni": "^\\d+$"}}}`,
	}
	for name, body := range bad {
		writeFile(t, dir, name, body)
	}
	writeFile(t, dir, "notes.txt", "ignored")

	reg := New(Config{Dir: dir}, quietLogger())
	assert.Empty(t, reg.Report().Loaded)
	assert.Len(t, reg.Report().Skipped, len(bad))

	rule, ok := reg.NumberRule(constants.CountryFR, constants.DocCNI)
	require.True(t, ok)
	assert.Equal(t, SourceBuiltin, rule.Source())
	assert.Equal(t, Default().Fields(Generic), reg.Fields(Generic))
}

func TestMissingDirKeepsDefaults(t *testing.T) {
	reg := New(Config{Dir: filepath.Join(t.TempDir(), "nope")}, quietLogger())
	_, ok := reg.NumberRule(constants.CountryFR, constants.DocCNI)
	assert.True(t, ok)
	assert.Equal(t, Jurisdiction("generic"), reg.Jurisdictions()[0])
	assert.Len(t, reg.Jurisdictions(), 8)
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	n, err := ValidateFile(writeFile(t, dir, "ok.json", `{"patterns": {"generic": {"last_name": "Surname:\\s*(\\w+)"}}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = ValidateFile(writeFile(t, dir, "bad.json", `{"rules": {}}`))
	assert.Error(t, err)
}

func TestRegistryConcurrentReaders(t *testing.T) {
	reg := Default()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rule, ok := reg.NumberRule(constants.CountryFR, constants.DocCNI)
			if assert.True(t, ok) {
				_, _ = rule.Find("1234 5678 9012")
			}
		}()
	}
	wg.Wait()
}
