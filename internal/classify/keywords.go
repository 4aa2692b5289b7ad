package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/textnorm"
)

// countryPhrase ties a folded national-identity phrase to its country.
type countryPhrase struct {
	phrase  string
	country constants.Country
}

// countryPhrases is evaluated in order; the first phrase found wins. Official
// state names come before nationality adjectives so an issuing state outranks
// the holder's nationality.
var countryPhrases = []countryPhrase{
	{"republique francaise", constants.CountryFR},
	{"royaume de belgique", constants.CountryBE},
	{"koninkrijk belgie", constants.CountryBE},
	{"kingdom of belgium", constants.CountryBE},
	{"confederation suisse", constants.CountryCH},
	{"schweizerische eidgenossenschaft", constants.CountryCH},
	{"confederazione svizzera", constants.CountryCH},
	{"swiss confederation", constants.CountryCH},
	{"grand-duche de luxembourg", constants.CountryLU},
	{"grand duche de luxembourg", constants.CountryLU},
	{"grand duchy of luxembourg", constants.CountryLU},
	{"royaume du maroc", constants.CountryMA},
	{"kingdom of morocco", constants.CountryMA},
	{"المملكة المغربية", constants.CountryMA},
	{"republique algerienne", constants.CountryDZ},
	{"الجمهورية الجزائرية", constants.CountryDZ},
	{"republique tunisienne", constants.CountryTN},
	{"الجمهورية التونسية", constants.CountryTN},
	{"french republic", constants.CountryFR},
	{"nationalite francaise", constants.CountryFR},
	{"nationalite belge", constants.CountryBE},
	{"nationalite suisse", constants.CountryCH},
	{"nationalite luxembourgeoise", constants.CountryLU},
	{"nationalite marocaine", constants.CountryMA},
	{"nationalite algerienne", constants.CountryDZ},
	{"nationalite tunisienne", constants.CountryTN},
}

// typeKeywords lists folded keywords per document type. Types are evaluated in
// constants declaration order, so an earlier type wins when lists overlap.
var typeKeywords = map[constants.DocumentType][]string{
	constants.DocCNI: {
		"carte nationale d'identite",
		"carte d'identite",
		"carte nationale d'identification",
		"carte d'identite nationale",
		"national identity card",
		"identity card",
		"identiteitskaart",
		"identitatskarte",
		"carta d'identita",
		"بطاقة التعريف الوطنية",
		"البطاقة الوطنية",
		"cnie",
	},
	constants.DocPassport: {
		"passeport",
		"passport",
		"reisepass",
		"paspoort",
		"passaporto",
		"جواز السفر",
		"جواز سفر",
	},
	constants.DocResidence: {
		"titre de sejour",
		"carte de sejour",
		"carte de resident",
		"permis de sejour",
		"autorisation de sejour",
		"residence permit",
		"verblijfsvergunning",
		"auslanderausweis",
		"بطاقة الإقامة",
	},
	constants.DocVisa: {
		"visa schengen",
		"schengen visa",
		"type de visa",
		"visa type",
		"visa de long sejour",
		"visa de court sejour",
		"visa",
	},
	constants.DocTaxID: {
		"numero fiscal",
		"identifiant fiscal",
		"numero d'identification fiscale",
		"matricule fiscal",
		"avis d'imposition",
		"attestation fiscale",
		"carte fiscale",
		"tax identification number",
		"numero de tva",
		"numero d'entreprise",
	},
	constants.DocProfessionalCard: {
		"carte professionnelle",
		"professional card",
		"ordre des avocats",
		"carte d'avocat",
		"ordre des medecins",
		"carte de professionnel de sante",
		"experts-comptables",
		"expert-comptable",
		"rpps",
	},
}

// Input text is folded before matching, so the tables are folded the same way.
func init() {
	for i := range countryPhrases {
		countryPhrases[i].phrase = textnorm.Fold(countryPhrases[i].phrase)
	}
	for dt, kws := range typeKeywords {
		for i, kw := range kws {
			kws[i] = textnorm.Fold(kw)
		}
		typeKeywords[dt] = kws
	}
}

// containsPhrase reports whether phrase occurs in folded text with no letter
// or digit immediately around it.
func containsPhrase(text, phrase string) bool {
	for offset := 0; offset <= len(text); {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// CountryByKeyword returns the country of the first listed phrase present in folded text.
func CountryByKeyword(folded string) (constants.Country, bool) {
	for _, cp := range countryPhrases {
		if containsPhrase(folded, cp.phrase) {
			return cp.country, true
		}
	}
	return constants.CountryUnknown, false
}

// TypeByKeyword returns the first type, in declaration order, with a keyword present in folded text.
func TypeByKeyword(folded string) (constants.DocumentType, bool) {
	for _, dt := range constants.DocumentTypes() {
		for _, kw := range typeKeywords[dt] {
			if containsPhrase(folded, kw) {
				return dt, true
			}
		}
	}
	return constants.DocUnknown, false
}
