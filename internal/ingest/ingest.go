package ingest

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/idextract/internal/common"
	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/ocr"
	"github.com/joseph-ayodele/idextract/internal/pipeline"
	"github.com/joseph-ayodele/idextract/internal/repository"
)

// FileResult is the per-file ingest outcome.
type FileResult struct {
	Path         string
	JobID        uuid.UUID
	Deduplicated bool
	HashHex      string
	Result       *entity.ExtractionResult
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	NoData       uint32
	Failed       uint32
}

// Processor is what the ingestor hands each file to.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (pipeline.Outcome, error)
}

// Ingestor feeds files from disk to a Processor. With a job repository it
// skips files whose content already produced an EXTRACTED job.
type Ingestor struct {
	proc    Processor
	jobs    repository.ExtractJobRepository
	logger  *slog.Logger
	exts    map[string]struct{}
	workers int
}

type Option func(*Ingestor)

// WithJobs enables content-hash deduplication against stored jobs.
func WithJobs(jobs repository.ExtractJobRepository) Option {
	return func(i *Ingestor) { i.jobs = jobs }
}

func WithExtensions(exts map[string]struct{}) Option {
	return func(i *Ingestor) {
		if len(exts) > 0 {
			i.exts = exts
		}
	}
}

// WithWorkers bounds how many files IngestDirectory processes at once.
func WithWorkers(n int) Option {
	return func(i *Ingestor) {
		if n > 0 {
			i.workers = n
		}
	}
}

func NewIngestor(proc Processor, logger *slog.Logger, opts ...Option) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Ingestor{proc: proc, logger: logger, exts: ParseExts(nil), workers: 4}
	for _, o := range opts {
		o(i)
	}
	return i
}

// IngestPath processes one file. Errors are reported in the FileResult and
// returned so callers can classify them.
func (i *Ingestor) IngestPath(ctx context.Context, path string) (FileResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileResult{Path: path, Err: err.Error()}, err
	}
	res := FileResult{Path: abs}
	if !allowed(abs, i.exts) {
		err := common.NewAppError("INVALID_FORMAT", "extension not allowed: "+filepath.Ext(abs), common.ErrInvalidInput)
		res.Err = err.Error()
		return res, err
	}

	if i.jobs != nil {
		hash, err := ocr.ContentHash(abs)
		if err != nil {
			err = common.NoExtractableData("read "+abs, err)
			res.Err = err.Error()
			return res, err
		}
		res.HashHex = hash
		prev, err := i.jobs.LatestByHash(ctx, hash)
		switch {
		case err == nil:
			res.JobID = prev.ID
			res.Deduplicated = true
			if res.Result, err = prev.Result(); err != nil {
				i.logger.Warn("ingest.dedup.decode_failed", "path", abs, "job_id", prev.ID, "err", err)
			}
			i.logger.Debug("ingest.dedup", "path", abs, "job_id", prev.ID)
			return res, nil
		case !errors.Is(err, common.ErrNotFound):
			res.Err = err.Error()
			return res, err
		}
	}

	out, err := i.proc.ProcessFile(ctx, abs)
	res.JobID = out.JobID
	res.Result = out.Result
	if err != nil {
		res.Err = err.Error()
		return res, err
	}
	return res, nil
}

// ProcessFile lets an Ingestor stand in for a pipeline.Processor, for
// example behind the async queue. Deduplicated files return the stored result.
func (i *Ingestor) ProcessFile(ctx context.Context, path string) (pipeline.Outcome, error) {
	res, err := i.IngestPath(ctx, path)
	return pipeline.Outcome{JobID: res.JobID, Path: res.Path, Result: res.Result}, err
}
