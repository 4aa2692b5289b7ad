package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNoExtractableData(t *testing.T) {
	cause := errors.New("tesseract exited 1")
	err := NoExtractableData("ocr failed", cause)

	assert.ErrorIs(t, err, ErrNoExtractableData)
	assert.ErrorIs(t, err, cause)

	var appErr *AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NO_EXTRACTABLE_DATA", appErr.Code)

	assert.ErrorIs(t, NoExtractableData("empty", nil), ErrNoExtractableData)
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"no data", NoExtractableData("x", nil), codes.FailedPrecondition},
		{"invalid", WrapError(ErrInvalidInput, "text"), codes.InvalidArgument},
		{"not found", WrapError(ErrNotFound, "job"), codes.NotFound},
		{"other", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(ToStatus(tt.err))
			assert.True(t, ok)
			assert.Equal(t, tt.want, st.Code())
		})
	}
	assert.NoError(t, ToStatus(nil))
}
