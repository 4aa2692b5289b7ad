package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/common"
	"github.com/joseph-ayodele/idextract/internal/entity"
)

// OCROutcome is what text acquisition produced for a job.
type OCROutcome struct {
	OCRText    string
	Method     string
	Confidence float32
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Status       constants.JobStatus
	DocumentType constants.DocumentType
	Country      constants.Country
	Limit        int
}

type ExtractJobRepository interface {
	Start(ctx context.Context, sourcePath, contentHash, format string) (*entity.ExtractJob, error)
	FinishOCR(ctx context.Context, jobID uuid.UUID, out OCROutcome) error
	FinishExtraction(ctx context.Context, jobID uuid.UUID, res *entity.ExtractionResult) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, message string) error
	Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
	LatestByHash(ctx context.Context, contentHash string) (*entity.ExtractJob, error)
	List(ctx context.Context, f ListFilter) ([]*entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, log: log}
}

var jobSelectColumns = []string{
	"id", "source_path", "content_hash", "format", "status", "started_at", "finished_at",
	"error_message", "ocr_text", "ocr_method", "ocr_confidence", "document_type", "country", "result_json",
}

func (r *extractJobRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

func (r *extractJobRepo) exec(ctx context.Context, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	return r.db.SQL().ExecContext(ctx, query, args...)
}

func (r *extractJobRepo) Start(ctx context.Context, sourcePath, contentHash, format string) (*entity.ExtractJob, error) {
	if !validFormat(format) {
		return nil, common.NewAppError("INVALID_FORMAT", "unsupported format "+format, common.ErrInvalidInput)
	}
	job := &entity.ExtractJob{
		ID:          uuid.New(),
		SourcePath:  sourcePath,
		ContentHash: contentHash,
		Format:      format,
		Status:      string(constants.JobStatusRunning),
		StartedAt:   time.Now().UTC(),
	}
	var hash any
	if contentHash != "" {
		hash = contentHash
	}
	ins := r.builder().Insert(jobTable).
		Columns("id", "source_path", "content_hash", "format", "status", "started_at").
		Values(job.ID, job.SourcePath, hash, job.Format, job.Status, job.StartedAt)
	if _, err := r.exec(ctx, ins); err != nil {
		r.log.Error("extract_job start failed", "source_path", sourcePath, "err", err)
		return nil, fmt.Errorf("%w: start job: %w", common.ErrDatabase, err)
	}
	r.log.Info("extract_job started", "job_id", job.ID, "source_path", sourcePath, "format", format)
	return job, nil
}

func validFormat(f string) bool {
	for _, ft := range constants.FileTypes {
		if ft == f {
			return true
		}
	}
	return false
}

func (r *extractJobRepo) update(ctx context.Context, jobID uuid.UUID, u *entsql.UpdateBuilder) error {
	res, err := r.exec(ctx, u.Where(entsql.EQ("id", jobID)))
	if err != nil {
		return fmt.Errorf("%w: update job %s: %w", common.ErrDatabase, jobID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

func (r *extractJobRepo) FinishOCR(ctx context.Context, jobID uuid.UUID, out OCROutcome) error {
	u := r.builder().Update(jobTable).
		Set("ocr_text", out.OCRText).
		Set("ocr_method", out.Method).
		Set("ocr_confidence", out.Confidence).
		Set("status", string(constants.JobStatusOCROK))
	if err := r.update(ctx, jobID, u); err != nil {
		r.log.Error("extract_job finish(OCR_OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job ocr stored", "job_id", jobID, "method", out.Method, "confidence", out.Confidence)
	return nil
}

func (r *extractJobRepo) FinishExtraction(ctx context.Context, jobID uuid.UUID, res *entity.ExtractionResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	u := r.builder().Update(jobTable).
		Set("result_json", string(b)).
		Set("document_type", string(res.DocumentType)).
		Set("country", string(res.Country)).
		Set("finished_at", time.Now().UTC()).
		Set("status", string(constants.JobStatusExtracted))
	if err := r.update(ctx, jobID, u); err != nil {
		r.log.Error("extract_job finish(EXTRACTED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished (EXTRACTED)", "job_id", jobID, "document_type", res.DocumentType, "country", res.Country)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, message string) error {
	if status != constants.JobStatusFailed && status != constants.JobStatusNoData {
		status = constants.JobStatusFailed
	}
	u := r.builder().Update(jobTable).
		Set("finished_at", time.Now().UTC()).
		Set("status", string(status)).
		Set("error_message", message)
	if err := r.update(ctx, jobID, u); err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished", "job_id", jobID, "status", status, "error", message)
	return nil
}

func (r *extractJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	s := r.builder().Select(jobSelectColumns...).From(r.builder().Table(jobTable)).
		Where(entsql.EQ("id", jobID))
	jobs, err := r.query(ctx, s)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	return jobs[0], nil
}

func (r *extractJobRepo) LatestByHash(ctx context.Context, contentHash string) (*entity.ExtractJob, error) {
	s := r.builder().Select(jobSelectColumns...).From(r.builder().Table(jobTable)).
		Where(entsql.And(
			entsql.EQ("content_hash", contentHash),
			entsql.EQ("status", string(constants.JobStatusExtracted)),
		)).
		OrderBy(entsql.Desc("started_at")).
		Limit(1)
	jobs, err := r.query(ctx, s)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("job with hash %s: %w", contentHash, common.ErrNotFound)
	}
	return jobs[0], nil
}

func (r *extractJobRepo) List(ctx context.Context, f ListFilter) ([]*entity.ExtractJob, error) {
	var preds []*entsql.Predicate
	if f.Status != "" {
		preds = append(preds, entsql.EQ("status", string(f.Status)))
	}
	if f.DocumentType != "" {
		preds = append(preds, entsql.EQ("document_type", string(f.DocumentType)))
	}
	if f.Country != "" {
		preds = append(preds, entsql.EQ("country", string(f.Country)))
	}
	s := r.builder().Select(jobSelectColumns...).From(r.builder().Table(jobTable)).
		OrderBy(entsql.Desc("started_at"))
	if len(preds) > 0 {
		s.Where(entsql.And(preds...))
	}
	if f.Limit > 0 {
		s.Limit(f.Limit)
	}
	return r.query(ctx, s)
}

func (r *extractJobRepo) query(ctx context.Context, s *entsql.Selector) ([]*entity.ExtractJob, error) {
	query, args := s.Query()
	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query jobs: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.ExtractJob
	for rows.Next() {
		var (
			j       entity.ExtractJob
			hash    sql.NullString
			conf    sql.NullFloat64
			payload []byte
		)
		if err := rows.Scan(
			&j.ID, &j.SourcePath, &hash, &j.Format, &j.Status, &j.StartedAt, &j.FinishedAt,
			&j.ErrorMessage, &j.OCRText, &j.OCRMethod, &conf, &j.DocumentType, &j.Country, &payload,
		); err != nil {
			return nil, fmt.Errorf("%w: scan job: %w", common.ErrDatabase, err)
		}
		j.ContentHash = hash.String
		if conf.Valid {
			c := float32(conf.Float64)
			j.OCRConf = &c
		}
		if len(payload) > 0 {
			j.ResultJSON = json.RawMessage(payload)
		}
		out = append(out, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(common.ErrDatabase, err)
	}
	return out, nil
}
