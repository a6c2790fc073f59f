package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emu-ics/report-portal-api/internal/models"
)

func newSubmissionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubmissionRepositoryCreateForcesPending(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	submission := &models.Submission{
		ReportTypeID:   "admissiondata",
		Office:         "Registrar",
		Campus:         "Main Campus",
		SubmitterName:  "Office User",
		SubmitterEmail: "office@example.edu",
		Status:         models.SubmissionStatusApproved, // must be overridden
		RecordCount:    1,
		Payload:        []byte(`[{"Campus":"Main Campus"}]`),
	}
	require.NoError(t, repo.Create(context.Background(), submission))
	assert.Equal(t, models.SubmissionStatusPending, submission.Status)
	assert.NotEmpty(t, submission.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	rows := sqlmock.NewRows([]string{"id", "report_type_id", "office", "campus", "submitter_name", "submitter_email",
		"status", "description", "record_count", "payload", "submitted_at", "reviewed_by", "reviewed_at", "note"}).
		AddRow("s1", "admissiondata", "EMU", "Main Campus", "Office User", "office@example.edu",
			"PENDING", nil, 2, []byte(`[]`), time.Now(), nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("LOWER(office) = LOWER($2)")).
		WithArgs("PENDING", "emu").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.SubmissionFilter{
		Status: []models.SubmissionStatus{models.SubmissionStatusPending},
		Office: "emu",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "EMU", list[0].Office)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdateStatusOnlyWhilePending(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	now := time.Now().UTC()
	note := "ok"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions")).
		WithArgs("APPROVED", "admin-1", now, "ok", "s1", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), "s1", models.SubmissionStatusApproved, "admin-1", now, &note))

	// already terminal: zero rows affected
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), "s1", models.SubmissionStatusRejected, "admin-1", now, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("PENDING", 3).
		AddRow("APPROVED", 7)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, models.SubmissionStatusPending, counts[0].Status)
	assert.Equal(t, 3, counts[0].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}
