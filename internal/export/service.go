package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/repository"
)

// Row is one line of an export: a source file and what was extracted from it.
// Result is nil for failed extractions.
type Row struct {
	SourcePath string
	Status     string
	Error      string
	Result     *entity.ExtractionResult
}

// Service is a tiny façade over the job repository that produces XLSX bytes.
type Service struct {
	jobs   repository.ExtractJobRepository
	logger *slog.Logger
}

func NewService(jobs repository.ExtractJobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, logger: logger}
}

// ExportJobsXLSX returns a workbook of the jobs matching f, newest first.
func (s *Service) ExportJobsXLSX(ctx context.Context, f repository.ListFilter) ([]byte, error) {
	start := time.Now()
	jobs, err := s.jobs.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	rows := make([]Row, 0, len(jobs))
	for _, j := range jobs {
		res, err := j.Result()
		if err != nil {
			s.logger.Warn("export.result.decode_failed", "job_id", j.ID, "error", err)
		}
		rows = append(rows, Row{SourcePath: j.SourcePath, Status: j.Status, Error: entity.Deref(j.ErrorMessage), Result: res})
	}
	b, err := WriteXLSX(rows)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

var headers = []string{
	"Source",
	"Status",
	"Document Type",
	"Country",
	"Document Number",
	"Last Name",
	"First Name",
	"Birth Date",
	"Birth Place",
	"Gender",
	"Nationality",
	"Issue Date",
	"Expiry Date",
	"Issuing Authority",
	"Warnings / Error",
}

// Sheet is the name of the worksheet WriteXLSX fills.
const Sheet = "Documents"

// WriteXLSX renders rows as a single-sheet workbook.
func WriteXLSX(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(Sheet, cell, h)
	}

	for i, r := range rows {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(Sheet, cell, v)
		}
		write(1, r.SourcePath)
		write(2, r.Status)
		if r.Result == nil {
			write(15, truncate(r.Error, 200))
			continue
		}
		res := r.Result
		p, d := res.PersonalInfo, res.DocumentInfo
		write(3, string(res.DocumentType))
		write(4, string(res.Country))
		write(5, entity.Deref(res.DocumentNumber))
		write(6, entity.Deref(p.LastName))
		write(7, entity.Deref(p.FirstName))
		write(8, dateCell(p.BirthDate))
		write(9, entity.Deref(p.BirthPlace))
		write(10, entity.Deref(p.Gender))
		write(11, entity.Deref(p.Nationality))
		write(12, dateCell(d.IssueDate))
		write(13, dateCell(d.ExpiryDate))
		write(14, entity.Deref(d.IssuingAuthority))
		write(15, truncate(strings.Join(res.Warnings, "; "), 200))
	}

	// Widen a few columns
	_ = f.SetColWidth(Sheet, "A", "A", 48) // source
	_ = f.SetColWidth(Sheet, "B", "D", 14)
	_ = f.SetColWidth(Sheet, "E", "G", 20) // number, names
	_ = f.SetColWidth(Sheet, "N", "N", 32) // authority
	_ = f.SetColWidth(Sheet, "O", "O", 60) // warnings

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func dateCell(d *entity.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
