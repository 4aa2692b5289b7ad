// Package patterns holds the compiled matching rules for identity documents:
// document-number formats per jurisdiction, the jurisdiction-free person and
// document field rules, and the fiscal and professional-license tables.
package patterns

import (
	"log/slog"
	"sort"

	"github.com/joseph-ayodele/idextract/constants"
)

// Jurisdiction is a country code or the Generic sentinel.
type Jurisdiction string

// Generic holds the rules applied regardless of country.
const Generic Jurisdiction = "generic"

// ForCountry maps a detected country to its jurisdiction. Unknown maps to a
// jurisdiction with no rules.
func ForCountry(c constants.Country) Jurisdiction {
	return Jurisdiction(c)
}

// Field names a rule within a jurisdiction.
type Field string

// Generic fields.
const (
	FieldLastName         Field = "last_name"
	FieldFirstName        Field = "first_name"
	FieldBirthDate        Field = "birth_date"
	FieldBirthPlace       Field = "birth_place"
	FieldGender           Field = "gender"
	FieldNationality      Field = "nationality"
	FieldAddress          Field = "address"
	FieldProfession       Field = "profession"
	FieldIssuingAuthority Field = "issuing_authority"
	FieldIssueDate        Field = "issue_date"
	FieldExpiryDate       Field = "expiry_date"
	FieldFatherName       Field = "father_name"
	FieldMotherName       Field = "mother_name"
	FieldDocumentNumber   Field = "document_number"
)

// GenericFields lists the generic person/document fields in extraction order.
var GenericFields = []Field{
	FieldLastName,
	FieldFirstName,
	FieldBirthDate,
	FieldBirthPlace,
	FieldGender,
	FieldNationality,
	FieldAddress,
	FieldProfession,
	FieldIssuingAuthority,
	FieldIssueDate,
	FieldExpiryDate,
	FieldFatherName,
	FieldMotherName,
}

// NumberField is the field holding the number format of a document type in a
// country jurisdiction.
func NumberField(dt constants.DocumentType) Field {
	return Field(dt)
}

// SourceBuiltin marks rules compiled into the binary.
const SourceBuiltin = "builtin"

// DocumentPatternSet maps jurisdiction to field to rule.
type DocumentPatternSet map[Jurisdiction]map[Field]*Rule

// Registry is immutable after construction and safe for concurrent readers.
type Registry struct {
	sets         DocumentPatternSet
	tax          []TaxRule
	taxAuthority *Rule
	professional []LicenseRule
	report       LoadReport
	cfg          Config
}

// Config selects the optional external pattern directory.
type Config struct {
	Dir string
}

// New builds the built-in registry and merges the pattern files found in
// cfg.Dir. Files that cannot be used are logged and skipped.
func New(cfg Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		sets:         builtinSets(),
		tax:          builtinTaxRules(),
		taxAuthority: taxAuthorityRule,
		professional: builtinLicenseRules(),
		cfg:          cfg,
	}
	if cfg.Dir != "" {
		r.report = r.mergeDir(cfg.Dir, logger)
	}
	logger.Info("pattern registry ready",
		"jurisdictions", len(r.sets),
		"external_files", len(r.report.Loaded),
		"skipped_files", len(r.report.Skipped),
	)
	return r
}

// Default returns a registry holding only the built-in rules.
func Default() *Registry {
	return New(Config{}, slog.New(slog.DiscardHandler))
}

// Reload builds a fresh registry from the same configuration. The receiver is
// not modified; callers swap the pointer they share.
func (r *Registry) Reload(logger *slog.Logger) *Registry {
	return New(r.cfg, logger)
}

// Lookup returns the rule for (jurisdiction, field).
func (r *Registry) Lookup(j Jurisdiction, f Field) (*Rule, bool) {
	fields, ok := r.sets[j]
	if !ok {
		return nil, false
	}
	rule, ok := fields[f]
	return rule, ok
}

// NumberRule returns the number format of dt in the country's jurisdiction.
func (r *Registry) NumberRule(c constants.Country, dt constants.DocumentType) (*Rule, bool) {
	return r.Lookup(ForCountry(c), NumberField(dt))
}

// TaxRules returns the fiscal-number rules in jurisdiction declaration order.
func (r *Registry) TaxRules() []TaxRule {
	return append([]TaxRule(nil), r.tax...)
}

// TaxRule returns the fiscal-number rule of one country.
func (r *Registry) TaxRule(c constants.Country) (TaxRule, bool) {
	for _, t := range r.tax {
		if t.Country == c {
			return t, true
		}
	}
	return TaxRule{}, false
}

// TaxAuthority returns the rule finding the name of an issuing fiscal administration.
func (r *Registry) TaxAuthority() *Rule {
	return r.taxAuthority
}

// LicenseRules returns the professional-license rules in evaluation order.
func (r *Registry) LicenseRules() []LicenseRule {
	return append([]LicenseRule(nil), r.professional...)
}

// Jurisdictions lists the jurisdictions holding at least one rule, Generic first.
func (r *Registry) Jurisdictions() []Jurisdiction {
	out := []Jurisdiction{Generic}
	for _, c := range constants.Countries() {
		if _, ok := r.sets[ForCountry(c)]; ok {
			out = append(out, ForCountry(c))
		}
	}
	return out
}

// Fields lists the fields defined for j, sorted.
func (r *Registry) Fields(j Jurisdiction) []Field {
	fields := r.sets[j]
	out := make([]Field, 0, len(fields))
	for f := range fields {
		out = append(out, f)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Report describes which external files were merged or skipped.
func (r *Registry) Report() LoadReport {
	return r.report
}

func knownJurisdiction(j Jurisdiction) bool {
	if j == Generic {
		return true
	}
	_, ok := constants.ParseCountry(string(j))
	return ok
}

func knownField(j Jurisdiction, f Field) bool {
	if j == Generic {
		if f == FieldDocumentNumber {
			return true
		}
		for _, g := range GenericFields {
			if g == f {
				return true
			}
		}
		return false
	}
	for _, dt := range constants.NumberedDocumentTypes {
		if NumberField(dt) == f {
			return true
		}
	}
	return false
}
