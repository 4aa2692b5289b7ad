package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct{ in, want string }{
		{"République Française", "republique francaise"},
		{"CARTE NATIONALE D’IDENTITÉ", "carte nationale d'identite"},
		{"Royaume du Maroc", "royaume du maroc"},
		{"الجمهورية الجزائرية", "الجمهورية الجزائرية"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), tt.in)
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Dupont", Title("DUPONT"))
	assert.Equal(t, "Marie Claire", Title("  marie   CLAIRE "))
	assert.Equal(t, "Jean-Luc", Title("JEAN-LUC"))
	assert.Equal(t, "", Title("   "))
}

func TestStripSpaces(t *testing.T) {
	assert.Equal(t, "123456789012", StripSpaces("1234 5678\t9012"))
	assert.Equal(t, "a b", CollapseSpaces("  a \n b "))
}
