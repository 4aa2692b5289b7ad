package patterns

// LicenseRule finds the registration number of one regulated profession.
type LicenseRule struct {
	Profession string
	Label      string
	Rule       *Rule
}

// Profession identifiers written to additional_info.
const (
	ProfessionLawyer     = "lawyer"
	ProfessionDoctor     = "doctor"
	ProfessionAccountant = "accountant"
)

// FieldLicenseNumber is the field name used for professional-license rules.
const FieldLicenseNumber Field = "license_number"

// builtinLicenseRules is evaluated in order; the first profession that matches wins.
func builtinLicenseRules() []LicenseRule {
	return []LicenseRule{
		{
			Profession: ProfessionLawyer,
			Label:      "Avocat",
			Rule: mustRule(FieldLicenseNumber, `^[A-Z0-9]{3,10}$`,
				`(?i)(?:cnbf|toque)[ \t]*(?:n[°o])?[ \t]*[:.]?[ \t]*([A-Z0-9]{3,10})(?:[^A-Za-z0-9]|$)`,
				`(?i)avocat[^\n]*?(?:n[°o]|matricule|inscription)[ \t]*[:.]?[ \t]*([A-Z0-9]{3,10})(?:[^A-Za-z0-9]|$)`,
			),
		},
		{
			Profession: ProfessionDoctor,
			Label:      "Médecin",
			Rule: mustRule(FieldLicenseNumber, `^(?:\d{11}|\d{9})$`,
				`(?i)rpps[ \t]*(?:n[°o])?[ \t]*[:.]?[ \t]*(\d{11})(?:\D|$)`,
				`(?i)adeli[ \t]*(?:n[°o])?[ \t]*[:.]?[ \t]*(\d{9})(?:\D|$)`,
			),
		},
		{
			Profession: ProfessionAccountant,
			Label:      "Expert-comptable",
			Rule: mustRule(FieldLicenseNumber, `^[A-Z0-9]{4,12}$`,
				`(?i)(?:experts?[ \-]comptables?|oec)[^\n]*?(?:n[°o]|inscription|matricule)[ \t]*[:.]?[ \t]*([A-Z0-9]{4,12})(?:[^A-Za-z0-9]|$)`,
			),
		},
	}
}
