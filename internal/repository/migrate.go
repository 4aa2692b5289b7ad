package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const jobTable = "extraction_job"

var (
	// jobColumns holds the columns of the extraction_job table.
	jobColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "source_path", Type: field.TypeString, Size: 2147483647},
		{Name: "content_hash", Type: field.TypeString, Nullable: true},
		{Name: "format", Type: field.TypeString},
		{Name: "status", Type: field.TypeString},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "finished_at", Type: field.TypeTime, Nullable: true},
		{Name: "error_message", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "ocr_text", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "ocr_method", Type: field.TypeString, Nullable: true},
		{Name: "ocr_confidence", Type: field.TypeFloat32, Nullable: true},
		{Name: "document_type", Type: field.TypeString, Nullable: true},
		{Name: "country", Type: field.TypeString, Nullable: true},
		{Name: "result_json", Type: field.TypeJSON, Nullable: true},
	}
	// jobsTable holds the schema information for the extraction_job table.
	jobsTable = &schema.Table{
		Name:       jobTable,
		Columns:    jobColumns,
		PrimaryKey: []*schema.Column{jobColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "extractionjob_status_started_at",
				Unique:  false,
				Columns: []*schema.Column{jobColumns[4], jobColumns[5]},
			},
			{
				Name:    "extractionjob_content_hash",
				Unique:  false,
				Columns: []*schema.Column{jobColumns[2]},
			},
		},
	}
)

// Migrate creates or updates the extraction_job table.
func (d *DB) Migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(d.drv)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := m.Create(ctx, jobsTable); err != nil {
		d.logger.Error("migration failed", "error", err)
		return fmt.Errorf("migrate: %w", err)
	}
	d.logger.Info("database schema ready", "table", jobTable)
	return nil
}
