package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/common"
	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/extract"
	"github.com/joseph-ayodele/idextract/internal/ocr"
	"github.com/joseph-ayodele/idextract/internal/repository"
)

// Processor runs a file through text acquisition and the pipeline and, when a
// job repository is given, records every step as an extraction job.
type Processor struct {
	logger   *slog.Logger
	text     extract.TextExtractor
	pipeline *Pipeline
	jobs     repository.ExtractJobRepository
}

// NewProcessor wires a processor. jobs may be nil to skip persistence.
func NewProcessor(logger *slog.Logger, text extract.TextExtractor, p *Pipeline, jobs repository.ExtractJobRepository) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, text: text, pipeline: p, jobs: jobs}
}

// Outcome is the result of processing one file.
type Outcome struct {
	JobID  uuid.UUID
	Path   string
	Result *entity.ExtractionResult
	OCR    extract.TextExtractionResult
}

// ProcessFile acquires the text of path, runs the pipeline and stores the
// job. An unreadable or empty document yields common.ErrNoExtractableData
// and a NO_DATA job.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Outcome, error) {
	out := Outcome{Path: path}
	format := constants.MapExtToFormat(filepath.Ext(path))
	if format == "" {
		return out, common.NewAppError("INVALID_FORMAT", "unsupported file "+path, common.ErrInvalidInput)
	}

	hash, err := ocr.ContentHash(path)
	if err != nil {
		return out, common.NoExtractableData("read "+path, err)
	}
	ctx = ocr.WithContentHash(ctx, hash)

	if p.jobs != nil {
		job, err := p.jobs.Start(ctx, path, hash, format)
		if err != nil {
			return out, err
		}
		out.JobID = job.ID
		ctx = common.WithJobID(ctx, job.ID.String())
	}

	if p.text == nil {
		err := common.NoExtractableData("no text extractor configured", common.ErrOCRUnavailable)
		p.fail(ctx, out.JobID, err)
		return out, err
	}
	tr, err := p.text.Extract(ctx, path)
	out.OCR = tr
	if err != nil {
		err = common.NoExtractableData("text acquisition failed", err)
		p.fail(ctx, out.JobID, err)
		return out, err
	}
	if strings.TrimSpace(tr.Text) == "" {
		err := common.NoExtractableData("no text in "+filepath.Base(path), nil)
		p.fail(ctx, out.JobID, err)
		return out, err
	}
	if p.jobs != nil {
		if err := p.jobs.FinishOCR(ctx, out.JobID, repository.OCROutcome{OCRText: tr.Text, Method: tr.Method, Confidence: tr.Confidence}); err != nil {
			return out, err
		}
	}
	p.logger.Debug("processor.ocr.ok", "path", path, "job_id", out.JobID, "method", tr.Method, "pages", tr.Pages, "confidence", tr.Confidence)

	in := Input{Text: tr.Text}
	if format == constants.IMAGE {
		in.ImagePath = path
	}
	res, err := p.pipeline.Extract(ctx, in)
	if err != nil {
		p.fail(ctx, out.JobID, err)
		return out, err
	}
	for _, w := range tr.Warnings {
		if w = strings.TrimSpace(w); w != "" {
			res.Warn("ocr: " + w)
		}
	}
	out.Result = res

	if p.jobs != nil {
		if err := p.jobs.FinishExtraction(ctx, out.JobID, res); err != nil {
			return out, err
		}
	}
	p.logger.Info("processor.extract.ok", "path", path, "job_id", out.JobID, "document_type", res.DocumentType, "country", res.Country)
	return out, nil
}

func (p *Processor) fail(ctx context.Context, jobID uuid.UUID, cause error) {
	p.logger.Error("processor.failed", "job_id", jobID, "err", cause)
	if p.jobs == nil || jobID == uuid.Nil {
		return
	}
	status := constants.JobStatusFailed
	if errors.Is(cause, common.ErrNoExtractableData) {
		status = constants.JobStatusNoData
	}
	// the caller's context may be the reason we are failing
	if err := p.jobs.FinishFailure(context.WithoutCancel(ctx), jobID, status, cause.Error()); err != nil {
		p.logger.Error("processor.finish_failure.failed", "job_id", jobID, "err", fmt.Errorf("record failure: %w", err))
	}
}
