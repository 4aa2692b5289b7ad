package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractJob is one recorded extraction attempt over a source file or text.
type ExtractJob struct {
	ID           uuid.UUID       `json:"id"`
	SourcePath   string          `json:"source_path"`
	ContentHash  string          `json:"content_hash,omitempty"`
	Format       string          `json:"format"`
	Status       string          `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	OCRText      *string         `json:"ocr_text,omitempty"`
	OCRMethod    *string         `json:"ocr_method,omitempty"`
	OCRConf      *float32        `json:"ocr_confidence,omitempty"`
	DocumentType *string         `json:"document_type,omitempty"`
	Country      *string         `json:"country,omitempty"`
	ResultJSON   json.RawMessage `json:"result_json,omitempty"`
}

// Result decodes the stored extraction result, or returns nil when none was stored.
func (j *ExtractJob) Result() (*ExtractionResult, error) {
	if len(j.ResultJSON) == 0 {
		return nil, nil
	}
	var out ExtractionResult
	if err := json.Unmarshal(j.ResultJSON, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
