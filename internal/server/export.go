package server

import (
	"context"
	"encoding/base64"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/common"
	"github.com/joseph-ayodele/idextract/internal/repository"
)

func (s *ExtractorService) export(ctx context.Context, req ExportRequest) ([]byte, error) {
	if s.exporter == nil {
		return nil, common.NewAppError("NOT_CONFIGURED", "job storage is not configured", common.ErrNotFound)
	}
	f := repository.ListFilter{Status: constants.JobStatus(strings.ToUpper(strings.TrimSpace(req.Status))), Limit: req.Limit}
	if v := strings.TrimSpace(req.DocumentType); v != "" {
		dt, ok := constants.ParseDocumentType(v)
		if !ok {
			return nil, common.NewAppError("INVALID_INPUT", "unknown document_type "+v, common.ErrInvalidInput)
		}
		f.DocumentType = dt
	}
	if v := strings.TrimSpace(req.Country); v != "" {
		c, ok := constants.ParseCountry(v)
		if !ok {
			return nil, common.NewAppError("INVALID_INPUT", "unknown country "+v, common.ErrInvalidInput)
		}
		f.Country = c
	}
	xlsx, err := s.exporter.ExportJobsXLSX(ctx, f)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "err", err)
		return nil, err
	}
	return xlsx, nil
}

// ExportJobs implements ExtractorServer. The workbook is returned base64 encoded under "xlsx".
func (s *ExtractorService) ExportJobs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in ExportRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, common.InvalidArgumentErrorf("decode request: %v", err)
	}
	xlsx, err := s.export(ctx, in)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return structpb.NewStruct(map[string]any{"xlsx": base64.StdEncoding.EncodeToString(xlsx)})
}
