package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/idextract/internal/common"
	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/export"
	"github.com/joseph-ayodele/idextract/internal/pipeline"
	"github.com/joseph-ayodele/idextract/internal/repository"
)

// Extractor is the pipeline surface the transports call.
type Extractor interface {
	Extract(ctx context.Context, in pipeline.Input) (*entity.ExtractionResult, error)
}

// ExtractRequest is the body of an extract call on both transports.
type ExtractRequest struct {
	Text      string `json:"text"`
	ImagePath string `json:"image_path"`
}

type JobRequest struct {
	ID string `json:"id"`
}

type ExportRequest struct {
	Status       string `json:"status"`
	DocumentType string `json:"document_type"`
	Country      string `json:"country"`
	Limit        int    `json:"limit"`
}

// ExtractorService serves extraction and, when a job repository is wired,
// job lookup and XLSX export.
type ExtractorService struct {
	extractor Extractor
	jobs      repository.ExtractJobRepository
	exporter  *export.Service
	imageRoot string
	logger    *slog.Logger
}

type ServiceOption func(*ExtractorService)

func WithJobs(jobs repository.ExtractJobRepository) ServiceOption {
	return func(s *ExtractorService) {
		s.jobs = jobs
		if jobs != nil {
			s.exporter = export.NewService(jobs, s.logger)
		}
	}
}

// WithImageRoot lets callers name images by path. Paths must resolve inside
// dir; without this option image_path is rejected.
func WithImageRoot(dir string) ServiceOption {
	return func(s *ExtractorService) {
		if dir != "" {
			s.imageRoot = filepath.Clean(dir)
		}
	}
}

func NewExtractorService(ex Extractor, logger *slog.Logger, opts ...ServiceOption) *ExtractorService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ExtractorService{extractor: ex, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *ExtractorService) extract(ctx context.Context, req ExtractRequest) (*entity.ExtractionResult, error) {
	in := pipeline.Input{Text: req.Text}
	if p := strings.TrimSpace(req.ImagePath); p != "" {
		resolved, err := s.resolveImage(p)
		if err != nil {
			return nil, err
		}
		in.ImagePath = resolved
	}
	if strings.TrimSpace(in.Text) == "" && in.ImagePath == "" {
		return nil, common.NewAppError("INVALID_INPUT", "text or image_path is required", common.ErrInvalidInput)
	}
	start := time.Now()
	res, err := s.extractor.Extract(ctx, in)
	if err != nil {
		s.logger.Warn("server.extract.failed", "image_path", in.ImagePath, "err", err)
		return nil, err
	}
	s.logger.Info("server.extract.ok",
		"document_type", res.DocumentType,
		"country", res.Country,
		"warnings", len(res.Warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// resolveImage maps a caller-supplied path onto the image root. Relative paths
// are taken from the root; absolute ones must already lie under it.
func (s *ExtractorService) resolveImage(p string) (string, error) {
	if s.imageRoot == "" {
		return "", common.NewAppError("INVALID_INPUT", "image_path is not accepted by this server", common.ErrInvalidInput)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.imageRoot, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(s.imageRoot, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", common.NewAppError("INVALID_INPUT", "image_path is outside the image root", common.ErrInvalidInput)
	}
	return p, nil
}

func (s *ExtractorService) job(ctx context.Context, req JobRequest) (*entity.ExtractJob, error) {
	if s.jobs == nil {
		return nil, common.NewAppError("NOT_CONFIGURED", "job storage is not configured", common.ErrNotFound)
	}
	id, err := uuid.Parse(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, common.NewAppError("INVALID_INPUT", "id must be a UUID", common.ErrInvalidInput)
	}
	return s.jobs.Get(ctx, id)
}

// Extract implements ExtractorServer.
func (s *ExtractorService) Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in ExtractRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, common.InvalidArgumentErrorf("decode request: %v", err)
	}
	res, err := s.extract(ctx, in)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(res)
}

// GetJob implements ExtractorServer.
func (s *ExtractorService) GetJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in JobRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, common.InvalidArgumentErrorf("decode request: %v", err)
	}
	job, err := s.job(ctx, in)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(job)
}

func fromStruct(in *structpb.Struct, dst any) error {
	if in == nil {
		return nil
	}
	raw, err := json.Marshal(in.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalError(fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}
