package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/repository"
)

func cniResult() *entity.ExtractionResult {
	res := entity.NewExtractionResult()
	res.DocumentType = constants.DocCNI
	res.Country = constants.CountryFR
	res.DocumentNumber = entity.Str("123456789012")
	res.PersonalInfo.LastName = entity.Str("Dupont")
	res.PersonalInfo.FirstName = entity.Str("Marie")
	d, _ := entity.NewDate(1985, 4, 15)
	res.PersonalInfo.BirthDate = &d
	res.Warn("issue_date \"31/02/2020\" is not a valid date")
	return res
}

func openSheet(t *testing.T, b []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(Sheet)
	require.NoError(t, err)
	return rows
}

func TestWriteXLSX(t *testing.T) {
	b, err := WriteXLSX([]Row{
		{SourcePath: "/in/cni.png", Status: "EXTRACTED", Result: cniResult()},
		{SourcePath: "/in/blank.png", Status: "NO_DATA", Error: "ocr produced no text"},
	})
	require.NoError(t, err)

	rows := openSheet(t, b)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])

	r := rows[1]
	assert.Equal(t, "/in/cni.png", r[0])
	assert.Equal(t, "cni", r[2])
	assert.Equal(t, "fr", r[3])
	assert.Equal(t, "123456789012", r[4])
	assert.Equal(t, "Dupont", r[5])
	assert.Equal(t, "1985-04-15", r[7])
	assert.Contains(t, r[14], "not a valid date")

	assert.Equal(t, "NO_DATA", rows[2][1])
	assert.Equal(t, "ocr produced no text", rows[2][14])
}

func TestExportJobsXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))
	jobs := repository.NewExtractJobRepository(db, nil)

	job, err := jobs.Start(ctx, "/in/cni.png", "h", constants.IMAGE)
	require.NoError(t, err)
	require.NoError(t, jobs.FinishExtraction(ctx, job.ID, cniResult()))

	b, err := NewService(jobs, nil).ExportJobsXLSX(ctx, repository.ListFilter{})
	require.NoError(t, err)
	rows := openSheet(t, b)
	require.Len(t, rows, 2)
	assert.Equal(t, "EXTRACTED", rows[1][1])
	assert.Equal(t, "Marie", rows[1][6])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "éé…", truncate("ééééé", 3))
}
