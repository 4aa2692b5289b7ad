//go:build !ocr

package ocr

import (
	"context"
	"errors"
)

// ErrGosseractNotEnabled is returned when the binary was built without the
// ocr build tag.
var ErrGosseractNotEnabled = errors.New("gosseract engine not available: rebuild with -tags ocr")

// GosseractEngine is a placeholder in builds without libtesseract.
type GosseractEngine struct{}

func NewGosseractEngine(Config) (*GosseractEngine, error) {
	return nil, ErrGosseractNotEnabled
}

func (g *GosseractEngine) Name() string { return "gosseract" }

func (g *GosseractEngine) Recognize(context.Context, string) (Recognition, error) {
	return Recognition{}, ErrGosseractNotEnabled
}

func (g *GosseractEngine) Close() error { return nil }
