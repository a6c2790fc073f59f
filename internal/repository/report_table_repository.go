package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/emu-ics/report-portal-api/internal/models"
)

const reportTablePrefix = "report_data_"

// ReportTableRepository provisions and fills the per-report-type storage
// tables. Table shape is derived from the schema: one column per ColumnSpec
// in schema order, plus provenance columns.
type ReportTableRepository struct {
	db *sqlx.DB
}

// NewReportTableRepository constructs the repository.
func NewReportTableRepository(db *sqlx.DB) *ReportTableRepository {
	return &ReportTableRepository{db: db}
}

// TableName returns the storage table name for a report type.
func TableName(reportTypeID string) string {
	return reportTablePrefix + normalizeIdentifier(reportTypeID)
}

// StorageColumn returns the storage column name for a schema column.
func StorageColumn(columnName string) string {
	return normalizeIdentifier(columnName)
}

// EnsureTable creates the storage table for the schema when it does not
// exist yet. CREATE TABLE IF NOT EXISTS makes the call idempotent and safe
// under concurrent first-use.
func (r *ReportTableRepository) EnsureTable(ctx context.Context, schema *models.ReportTypeSchema) (string, error) {
	name := TableName(schema.ID)
	if _, err := r.db.ExecContext(ctx, buildCreateTable(schema)); err != nil {
		return "", fmt.Errorf("ensure table %s: %w", name, err)
	}
	return name, nil
}

// StoreApprovedParams groups everything the approve transition writes.
type StoreApprovedParams struct {
	Submission *models.Submission
	Schema     *models.ReportTypeSchema
	Rows       []models.RowRecord
	ReviewedBy string
	ReviewedAt time.Time
	Note       *string
}

// StoreApproved performs the whole approve transition in one transaction:
// it claims the submission with a conditional status update, ensures the
// storage table, and inserts every row. sql.ErrNoRows means the submission
// was no longer PENDING and nothing was written. Any other failure rolls the
// transaction back, leaving the submission PENDING and the table unchanged.
func (r *ReportTableRepository) StoreApproved(ctx context.Context, params StoreApprovedParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve tx: %w", err)
	}

	const claim = `UPDATE submissions
	SET status = $1, reviewed_by = $2, reviewed_at = $3, note = $4
	WHERE id = $5 AND status = $6`
	result, err := tx.ExecContext(ctx, claim,
		models.SubmissionStatusApproved, params.ReviewedBy, params.ReviewedAt, params.Note,
		params.Submission.ID, models.SubmissionStatusPending)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("claim submission for approval: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("check approval claim rows: %w", err)
	}
	if rows == 0 {
		_ = tx.Rollback()
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx, buildCreateTable(params.Schema)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("ensure table %s: %w", TableName(params.Schema.ID), err)
	}

	insert := buildInsertRow(params.Schema)
	for i, row := range params.Rows {
		args, err := insertArgs(params.Schema, params.Submission, row, params.ReviewedAt)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("convert row %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row %d into %s: %w", i, TableName(params.Schema.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approve tx: %w", err)
	}
	return nil
}

// ListRows reads stored rows back as strings in schema column order, plus
// provenance columns, for export.
func (r *ReportTableRepository) ListRows(ctx context.Context, schema *models.ReportTypeSchema, office string) ([]models.RowRecord, error) {
	selects := make([]string, 0, len(schema.Columns)+3)
	for _, col := range schema.Columns {
		selects = append(selects, fmt.Sprintf("%s::text", pq.QuoteIdentifier(StorageColumn(col.Name))))
	}
	selects = append(selects, "office", "campus", "recorded_at::text")

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), pq.QuoteIdentifier(TableName(schema.ID)))
	args := make([]interface{}, 0, 1)
	if office != "" {
		args = append(args, office)
		query += " WHERE LOWER(office) = LOWER($1)"
	}
	query += " ORDER BY recorded_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rows from %s: %w", TableName(schema.ID), err)
	}
	defer rows.Close()

	headers := append(schema.ColumnNames(), "Office", "Campus", "Recorded At")
	var records []models.RowRecord
	for rows.Next() {
		values := make([]sql.NullString, len(headers))
		scan := make([]interface{}, len(headers))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scan stored row: %w", err)
		}
		record := make(models.RowRecord, len(headers))
		for i, header := range headers {
			record[header] = values[i].String
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stored rows: %w", err)
	}
	return records, nil
}

func buildCreateTable(schema *models.ReportTypeSchema) string {
	builder := strings.Builder{}
	builder.WriteString("CREATE TABLE IF NOT EXISTS ")
	builder.WriteString(pq.QuoteIdentifier(TableName(schema.ID)))
	builder.WriteString(" (id TEXT PRIMARY KEY")
	for _, col := range schema.Columns {
		builder.WriteString(", ")
		builder.WriteString(pq.QuoteIdentifier(StorageColumn(col.Name)))
		builder.WriteString(" ")
		builder.WriteString(sqlTypeFor(col.Kind))
	}
	builder.WriteString(", office TEXT NOT NULL, campus TEXT NOT NULL, submission_id TEXT NOT NULL, recorded_at TIMESTAMPTZ NOT NULL)")
	return builder.String()
}

func sqlTypeFor(kind models.ColumnKind) string {
	switch kind {
	case models.ColumnKindBoundedInt:
		return "INTEGER"
	case models.ColumnKindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

func buildInsertRow(schema *models.ReportTypeSchema) string {
	columns := make([]string, 0, len(schema.Columns)+5)
	columns = append(columns, "id")
	for _, col := range schema.Columns {
		columns = append(columns, pq.QuoteIdentifier(StorageColumn(col.Name)))
	}
	columns = append(columns, "office", "campus", "submission_id", "recorded_at")

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(TableName(schema.ID)),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "))
}

func insertArgs(schema *models.ReportTypeSchema, submission *models.Submission, row models.RowRecord, recordedAt time.Time) ([]interface{}, error) {
	args := make([]interface{}, 0, len(schema.Columns)+5)
	args = append(args, uuid.NewString())
	for _, col := range schema.Columns {
		value, err := coerceValue(col, row[col.Name])
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}
	args = append(args, submission.Office, submission.Campus, submission.ID, recordedAt)
	return args, nil
}

func coerceValue(col models.ColumnSpec, raw string) (interface{}, error) {
	trimmed := strings.TrimSpace(raw)
	switch col.Kind {
	case models.ColumnKindBoundedInt:
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil, fmt.Errorf("column %q expects an integer, got %q", col.Name, raw)
		}
		if n < col.Min {
			return nil, fmt.Errorf("column %q value %d below minimum %d", col.Name, n, col.Min)
		}
		if col.Max > 0 && n > col.Max {
			return nil, fmt.Errorf("column %q value %d above maximum %d", col.Name, n, col.Max)
		}
		return n, nil
	case models.ColumnKindDate:
		parsed, err := time.Parse("2006-01-02", trimmed)
		if err != nil {
			return nil, fmt.Errorf("column %q expects a YYYY-MM-DD date, got %q", col.Name, raw)
		}
		return parsed, nil
	default:
		return trimmed, nil
	}
}

// normalizeIdentifier converts a schema or column name into a safe SQL
// identifier: lower snake_case, alphanumerics only.
func normalizeIdentifier(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	builder := strings.Builder{}
	lastUnderscore := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && builder.Len() > 0 {
				builder.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	result := strings.TrimRight(builder.String(), "_")
	if result == "" {
		return "col"
	}
	if result[0] >= '0' && result[0] <= '9' {
		result = "c_" + result
	}
	return result
}
