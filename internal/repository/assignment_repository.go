package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/emu-ics/report-portal-api/internal/models"
)

// AssignmentRepository persists office-to-report-type grants.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts a new assignment. Status is always initialised to ACTIVE.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	assignment.Status = models.AssignmentStatusActive
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignments
	(id, report_type_id, office, status, deadline, priority, created_by, created_at)
	VALUES (:id, :report_type_id, :office, :status, :deadline, :priority, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// GetByID fetches a single assignment.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT id, report_type_id, office, COALESCE(status, '') AS status,
	       deadline, priority, created_by, created_at
	FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// List returns assignments matching the filter. Office comparison is
// case-insensitive. Status is read through COALESCE so that a NULL value
// reaches the service layer as an empty string instead of being dropped;
// status filtering happens there, where a defective row can be reported.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(`SELECT id, report_type_id, office, COALESCE(status, '') AS status,
	       deadline, priority, created_by, created_at FROM assignments`)

	conditions := make([]string, 0, 2)
	if filter.Office != "" {
		args = append(args, filter.Office)
		conditions = append(conditions, fmt.Sprintf("LOWER(office) = LOWER($%d)", len(args)))
	}
	if filter.ReportTypeID != "" {
		args = append(args, filter.ReportTypeID)
		conditions = append(conditions, fmt.Sprintf("report_type_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// Deactivate flips an active assignment to INACTIVE. Assignments are never
// physically deleted.
func (r *AssignmentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE assignments SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, models.AssignmentStatusInactive, id, models.AssignmentStatusActive)
	if err != nil {
		return fmt.Errorf("deactivate assignment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deactivate rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
