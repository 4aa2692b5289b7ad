package patterns

import (
	"github.com/joseph-ayodele/idextract/constants"
)

// TaxRule finds a fiscal identifier issued by one country's tax administration.
type TaxRule struct {
	Country   constants.Country
	Authority string
	TaxType   string
	Rule      *Rule
}

// Field name used for fiscal rules.
const FieldTaxNumber Field = "tax_number"

func builtinTaxRules() []TaxRule {
	return []TaxRule{
		{
			Country:   constants.CountryFR,
			Authority: "Direction Générale des Finances Publiques (DGFiP)",
			TaxType:   "Numéro fiscal de référence (SPI)",
			Rule: mustRule(FieldTaxNumber, `^[0-3]\d{12}$`,
				boundedNumber(`[0-3]\d[ ]?\d{2}[ ]?\d{3}[ ]?\d{3}[ ]?\d{3}`),
			),
		},
		{
			Country:   constants.CountryBE,
			Authority: "SPF Finances",
			TaxType:   "Numéro d'entreprise / TVA",
			Rule: mustRule(FieldTaxNumber, `^BE[01]\d{3}\.?\d{3}\.?\d{3}$`,
				boundedNumber(`BE[ ]?[01]\d{3}[ .]?\d{3}[ .]?\d{3}`),
			),
		},
		{
			Country:   constants.CountryCH,
			Authority: "Administration fédérale des contributions (AFC)",
			TaxType:   "Numéro d'identification des entreprises (IDE)",
			Rule: mustRule(FieldTaxNumber, `^CHE-?\d{3}\.?\d{3}\.?\d{3}$`,
				boundedNumber(`CHE[ -]?\d{3}[ .]?\d{3}[ .]?\d{3}`),
			),
		},
		{
			Country:   constants.CountryLU,
			Authority: "Administration des contributions directes (ACD)",
			TaxType:   "Numéro d'identification TVA",
			Rule: mustRule(FieldTaxNumber, `^LU\d{8}$`,
				boundedNumber(`LU[ ]?\d{8}`),
			),
		},
		{
			Country:   constants.CountryMA,
			Authority: "Direction Générale des Impôts (DGI)",
			TaxType:   "Identifiant fiscal (IF)",
			Rule: mustRule(FieldTaxNumber, `^\d{7,8}$`,
				`(?i)(?:identifiant[ \t]+fiscal|\bIF\b)[ \t]*(?:n[°o])?[ \t]*[:.]?[ \t]*(\d{7,8})(?:\D|$)`,
			),
		},
		{
			Country:   constants.CountryDZ,
			Authority: "Direction Générale des Impôts (DGI)",
			TaxType:   "Numéro d'identification fiscale (NIF)",
			Rule: mustRule(FieldTaxNumber, `^\d{15}$`,
				boundedNumber(`\d{15}`),
			),
		},
		{
			Country:   constants.CountryTN,
			Authority: "Direction Générale des Impôts",
			TaxType:   "Matricule fiscal",
			Rule: mustRule(FieldTaxNumber, `^\d{7}[A-Z]/?[A-Z]/?[A-Z]/?\d{3}$`,
				boundedNumber(`\d{7}[ ]?[A-Z][ ]?/?[ ]?[A-Z][ ]?/?[ ]?[A-Z][ ]?/?[ ]?\d{3}`),
			),
		},
	}
}

// taxAuthorityRule finds the name of a fiscal administration, whatever the country.
var taxAuthorityRule = mustRule(FieldIssuingAuthority, "",
	`(?im)((?:direction[ \t]+g[ée]n[ée]rale[ \t]+des[ \t]+(?:finances[ \t]+publiques|imp[ôo]ts)|`+
		`direction[ \t]+(?:d[ée]partementale|r[ée]gionale)[ \t]+des[ \t]+finances[ \t]+publiques|`+
		`service[ \t]+des[ \t]+imp[ôo]ts[ \t]+des[ \t]+(?:particuliers|entreprises)|`+
		`centre[ \t]+des[ \t]+finances[ \t]+publiques|`+
		`spf[ \t]+finances|`+
		`administration[ \t]+f[ée]d[ée]rale[ \t]+des[ \t]+contributions|`+
		`administration[ \t]+des[ \t]+contributions[ \t]+directes)[^\n\t]*)`,
)
