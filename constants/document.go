package constants

import (
	"strings"
)

// DocumentType is the closed set of identity document kinds the extractor recognizes.
type DocumentType string

const (
	DocCNI              DocumentType = "cni"
	DocPassport         DocumentType = "passport"
	DocResidence        DocumentType = "residence"
	DocVisa             DocumentType = "visa"
	DocTaxID            DocumentType = "tax_id"
	DocProfessionalCard DocumentType = "professional_card"
	DocUnknown          DocumentType = "unknown"
)

// allDocumentTypes is the declaration order. Keyword classification breaks ties by it.
var allDocumentTypes = []DocumentType{
	DocCNI,
	DocPassport,
	DocResidence,
	DocVisa,
	DocTaxID,
	DocProfessionalCard,
}

// NumberedDocumentTypes are the types carrying a jurisdiction-specific number format,
// in the order pattern-based inference tries them.
var NumberedDocumentTypes = []DocumentType{DocCNI, DocPassport, DocResidence}

// DocumentTypes returns the known types (without unknown) in declaration order.
func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(allDocumentTypes))
	copy(out, allDocumentTypes)
	return out
}

// ParseDocumentType maps free-form input to a DocumentType.
func ParseDocumentType(input string) (DocumentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return DocUnknown, false
	}

	synonyms := map[string]DocumentType{
		"id":               DocCNI,
		"id_card":          DocCNI,
		"national_id":      DocCNI,
		"residence_permit": DocResidence,
		"titre_de_sejour":  DocResidence,
		"tax":              DocTaxID,
		"professional":     DocProfessionalCard,
		"carte_pro":        DocProfessionalCard,
		"passeport":        DocPassport,
	}
	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}
	for _, dt := range allDocumentTypes {
		if normalized == string(dt) {
			return dt, true
		}
	}
	return DocUnknown, false
}

// Country is an issuing jurisdiction.
type Country string

const (
	CountryFR      Country = "fr"
	CountryBE      Country = "be"
	CountryCH      Country = "ch"
	CountryLU      Country = "lu"
	CountryMA      Country = "ma"
	CountryDZ      Country = "dz"
	CountryTN      Country = "tn"
	CountryUnknown Country = "unknown"
)

var allCountries = []Country{
	CountryFR,
	CountryBE,
	CountryCH,
	CountryLU,
	CountryMA,
	CountryDZ,
	CountryTN,
}

// Countries returns the shipped jurisdictions in declaration order.
func Countries() []Country {
	out := make([]Country, len(allCountries))
	copy(out, allCountries)
	return out
}

// ParseCountry accepts a two-letter code in any case.
func ParseCountry(input string) (Country, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, c := range allCountries {
		if normalized == string(c) {
			return c, true
		}
	}
	return CountryUnknown, false
}

// Gender values after normalization.
const (
	GenderMale   = "M"
	GenderFemale = "F"
)
