// Package extract declares the optional capabilities the extraction pipeline
// can be given at construction.
package extract

import (
	"context"
	"time"
)

// TextExtractor turns a document file into text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF" | "IMAGE" | "TXT"
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr" | "vision" | "plain-text"
	Language   string
	Confidence float32
	Duration   time.Duration
	Warnings   []string
}

// EntityRecognizer finds person and place names in free text.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) (Entities, error)
}

// Entities holds the recognized values; empty strings mean not found.
type Entities struct {
	LastName   string
	FirstName  string
	BirthPlace string
	Model      string
}
