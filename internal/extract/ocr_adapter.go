package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/idextract/internal/ocr"
)

// OCRAdapter exposes an ocr.Source as a TextExtractor.
type OCRAdapter struct {
	e      ocr.Source
	logger *slog.Logger
}

func NewOCRAdapter(e ocr.Source, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{e: e, logger: logger}
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	r, err := a.e.Extract(ctx, path)
	if err != nil {
		a.logger.Warn("ocr.extract.failed", "path", path, "error", err)
	}
	return TextExtractionResult{
		Text:       r.Text,
		Pages:      r.Pages,
		SourceType: r.SourceType,
		Method:     r.Method,
		Language:   r.Language,
		Confidence: r.Confidence,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
	}, err
}
