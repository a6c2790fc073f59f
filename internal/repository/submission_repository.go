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

const submissionColumns = `id, report_type_id, office, campus, submitter_name, submitter_email,
       status, description, record_count, payload, submitted_at, reviewed_by, reviewed_at, note`

// SubmissionRepository persists submission batches and their review state.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a new submission row. Status is forced to PENDING.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	submission.Status = models.SubmissionStatusPending
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions
	(id, report_type_id, office, campus, submitter_name, submitter_email, status, description, record_count, payload, submitted_at, reviewed_by, reviewed_at, note)
	VALUES (:id, :report_type_id, :office, :campus, :submitter_name, :submitter_email, :status, :description, :record_count, :payload, :submitted_at, :reviewed_by, :reviewed_at, :note)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// GetByID fetches a submission with its full payload.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE id = $1`, submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// List returns submissions matching the filter, latest first.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM submissions`, submissionColumns))

	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Office != "" {
		args = append(args, filter.Office)
		conditions = append(conditions, fmt.Sprintf("LOWER(office) = LOWER($%d)", len(args)))
	}
	if filter.Campus != "" {
		args = append(args, filter.Campus)
		conditions = append(conditions, fmt.Sprintf("campus = $%d", len(args)))
	}
	if filter.ReportTypeID != "" {
		args = append(args, filter.ReportTypeID)
		conditions = append(conditions, fmt.Sprintf("report_type_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY submitted_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// UpdateStatus records a review decision. The update only applies while the
// submission is still PENDING; sql.ErrNoRows signals that the submission has
// already reached a terminal state.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus, reviewedBy string, reviewedAt time.Time, note *string) error {
	const query = `UPDATE submissions
	SET status = $1, reviewed_by = $2, reviewed_at = $3, note = $4
	WHERE id = $5 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, status, reviewedBy, reviewedAt, note, id, models.SubmissionStatusPending)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check submission update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus aggregates submissions per workflow state.
func (r *SubmissionRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM submissions GROUP BY status`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count submissions by status: %w", err)
	}
	return counts, nil
}
