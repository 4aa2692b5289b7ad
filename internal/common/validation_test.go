package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	v := NewValidator().
		Field("text", "", Required).
		Field("engine", "vision", OneOf("tesseract", "vision")).
		Field("name", "abcdef", MaxLength(3)).
		Field("image_path", file, ExistingFile).
		Field("other_path", filepath.Join(dir, "nope.png"), ExistingFile).
		Field("dir_path", dir, ExistingFile)

	require.True(t, v.HasErrors())
	fields := make([]string, 0, len(v.Errors()))
	for _, e := range v.Errors() {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"text", "name", "other_path", "dir_path"}, fields)
	assert.ErrorIs(t, v.Error(), ErrValidation)
}

func TestValidatorNoErrors(t *testing.T) {
	v := NewValidator().Field("id", "3f1b8a3e-6a4c-4f8e-9a63-0b9a2f0f2c11", UUID)
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
	assert.NoError(t, ValidateAndReturnError(v))
}
