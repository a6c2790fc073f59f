package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/emu-ics/report-portal-api/internal/models"
)

// ReportTypeRepository persists the report type registry rows.
type ReportTypeRepository struct {
	db *sqlx.DB
}

// NewReportTypeRepository constructs the repository.
func NewReportTypeRepository(db *sqlx.DB) *ReportTypeRepository {
	return &ReportTypeRepository{db: db}
}

// List returns all registered report types ordered by identifier.
func (r *ReportTypeRepository) List(ctx context.Context) ([]models.ReportType, error) {
	const query = `SELECT id, display_name, columns, created_at, updated_at
	FROM report_types ORDER BY id ASC`
	var types []models.ReportType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list report types: %w", err)
	}
	return types, nil
}

// GetByID fetches one report type row.
func (r *ReportTypeRepository) GetByID(ctx context.Context, id string) (*models.ReportType, error) {
	const query = `SELECT id, display_name, columns, created_at, updated_at
	FROM report_types WHERE id = $1`
	var rt models.ReportType
	if err := r.db.GetContext(ctx, &rt, query, id); err != nil {
		return nil, err
	}
	return &rt, nil
}

// Upsert inserts or updates a report type definition. Used to seed the
// built-in definitions on startup.
func (r *ReportTypeRepository) Upsert(ctx context.Context, rt *models.ReportType) error {
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = time.Now().UTC()
	}
	rt.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO report_types (id, display_name, columns, created_at, updated_at)
	VALUES (:id, :display_name, :columns, :created_at, :updated_at)
	ON CONFLICT (id)
	DO UPDATE SET display_name = EXCLUDED.display_name, columns = EXCLUDED.columns,
	              updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, rt); err != nil {
		return fmt.Errorf("upsert report type: %w", err)
	}
	return nil
}
