package fields

import (
	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/textnorm"
)

var genderTokens = foldTokens(map[string][]string{
	constants.GenderMale:   {"M", "H", "Homme", "Male", "Masculin", "Man", "ذكر"},
	constants.GenderFemale: {"F", "Femme", "Female", "Féminin", "Woman", "أنثى"},
})

func foldTokens(m map[string][]string) map[string]string {
	out := make(map[string]string)
	for gender, tokens := range m {
		for _, tok := range tokens {
			out[textnorm.Fold(tok)] = gender
		}
	}
	return out
}

// NormalizeGender maps a captured token to "M" or "F". Tokens outside the
// table return false and the field stays unset.
func NormalizeGender(token string) (string, bool) {
	g, ok := genderTokens[textnorm.Fold(textnorm.CollapseSpaces(token))]
	return g, ok
}
