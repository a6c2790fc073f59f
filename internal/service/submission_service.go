package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emu-ics/report-portal-api/internal/dto"
	"github.com/emu-ics/report-portal-api/internal/models"
	appErrors "github.com/emu-ics/report-portal-api/pkg/errors"
	"github.com/emu-ics/report-portal-api/pkg/export"
)

const dashboardCacheKey = "dashboard:summary"

// rowBookkeepingKeys are internal keys that may appear in stored payloads and
// must never reach a reviewer's screen.
var rowBookkeepingKeys = []string{"id", "submission_id"}

type submissionStore interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
}

type assignmentChecker interface {
	ActiveForOffice(ctx context.Context, reportTypeID, office string) (bool, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type storedRowReader interface {
	ListRows(ctx context.Context, schema *models.ReportTypeSchema, office string) ([]models.RowRecord, error)
}

// SubmissionService handles submission intake, listing and export.
type SubmissionService struct {
	repo        submissionStore
	assignments assignmentChecker
	schemas     schemaResolver
	tables      storedRowReader
	cache       summaryCache
	audit       auditRecorder
	metrics     *MetricsService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validate    *validator.Validate
	logger      *zap.Logger
	cacheTTL    time.Duration
}

// NewSubmissionService constructs the service.
func NewSubmissionService(
	repo submissionStore,
	assignments assignmentChecker,
	schemas schemaResolver,
	tables storedRowReader,
	cache summaryCache,
	audit auditRecorder,
	metrics *MetricsService,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &SubmissionService{
		repo:        repo,
		assignments: assignments,
		schemas:     schemas,
		tables:      tables,
		cache:       cache,
		audit:       audit,
		metrics:     metrics,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validate:    validator.New(),
		logger:      logger,
		cacheTTL:    cacheTTL,
	}
}

// Create validates and persists one submission batch as PENDING. Validation
// is all-or-nothing: a single empty or incomplete row rejects the whole batch
// with a per-row diagnostic and nothing is persisted.
func (s *SubmissionService) Create(ctx context.Context, req dto.CreateSubmissionRequest, actor *models.JWTClaims) (*models.Submission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Office == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account has no office")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	schema, err := s.schemas.GetSchema(req.ReportTypeID)
	if err != nil {
		return nil, err
	}
	if len(req.Rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one row is required")
	}

	report := ValidateRows(req.Rows, schema)
	if !report.OK() {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "submission rows are incomplete", report)
	}

	active, err := s.assignments.ActiveForOffice(ctx, req.ReportTypeID, actor.Office)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, appErrors.Clone(appErrors.ErrForbidden,
			fmt.Sprintf("office %s has no active assignment for %s", actor.Office, req.ReportTypeID))
	}

	payload, err := json.Marshal(report.Complete)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode submission rows")
	}

	submission := &models.Submission{
		ReportTypeID:   req.ReportTypeID,
		Office:         actor.Office,
		Campus:         actor.Campus,
		SubmitterName:  actor.FullName,
		SubmitterEmail: actor.Email,
		RecordCount:    len(report.Complete),
		Payload:        payload,
	}
	if req.Description != "" {
		description := req.Description
		submission.Description = &description
	}

	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create submission")
	}

	s.metrics.RecordSubmission(req.ReportTypeID)
	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionSubmissionCreate, "submission", submission.ID, submission)
	s.invalidateDashboard(ctx)
	s.logger.Info("submission created",
		zap.String("submission_id", submission.ID),
		zap.String("report_type", submission.ReportTypeID),
		zap.String("office", submission.Office),
		zap.Int("record_count", submission.RecordCount))
	return submission, nil
}

// List returns submissions visible to the actor. Office users are pinned to
// their own office regardless of what the query asks for.
func (s *SubmissionService) List(ctx context.Context, query dto.SubmissionQuery, actor *models.JWTClaims) ([]models.Submission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	filter := models.SubmissionFilter{
		Office:       query.Office,
		Campus:       query.Campus,
		ReportTypeID: query.ReportTypeID,
		Limit:        query.Limit,
		Offset:       query.Offset,
	}
	if actor.Role != models.RoleAdmin {
		filter.Office = actor.Office
	}
	if query.Status != "" {
		statuses, err := parseStatuses(query.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = statuses
	}

	submissions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list submissions")
	}
	return submissions, nil
}

// Details returns one submission with its decoded rows in column order.
// Bookkeeping keys are stripped before the rows leave the service.
func (s *SubmissionService) Details(ctx context.Context, id string, actor *models.JWTClaims) (*dto.SubmissionDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load submission")
	}
	if actor.Role != models.RoleAdmin && !strings.EqualFold(actor.Office, submission.Office) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "submission belongs to another office")
	}

	schema, err := s.schemas.GetSchema(submission.ReportTypeID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrIntegrityDefect,
			fmt.Sprintf("submission %s references unknown report type %q", submission.ID, submission.ReportTypeID))
	}

	var rows []models.RowRecord
	if len(submission.Payload) > 0 {
		if err := json.Unmarshal(submission.Payload, &rows); err != nil {
			return nil, appErrors.Clone(appErrors.ErrIntegrityDefect,
				fmt.Sprintf("submission %s payload is malformed", submission.ID))
		}
	}
	for _, row := range rows {
		for _, key := range rowBookkeepingKeys {
			delete(row, key)
		}
	}

	return &dto.SubmissionDetail{
		Submission: *submission,
		Columns:    schema.ColumnNames(),
		Rows:       rows,
	}, nil
}

// ExportPDF renders one submission's rows as a PDF document.
func (s *SubmissionService) ExportPDF(ctx context.Context, id string, actor *models.JWTClaims) ([]byte, string, error) {
	detail, err := s.Details(ctx, id, actor)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{Headers: detail.Columns}
	for _, row := range detail.Rows {
		dataset.Rows = append(dataset.Rows, row)
	}

	title := fmt.Sprintf("%s - %s", detail.Submission.ReportTypeID, detail.Submission.Office)
	payload, err := s.pdf.Render(dataset, title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf")
	}
	filename := fmt.Sprintf("submission-%s.pdf", detail.Submission.ID)
	return payload, filename, nil
}

// ExportStoredCSV exports the approved, stored rows of one report type as
// CSV. Admins may export everything; office users only their own office.
func (s *SubmissionService) ExportStoredCSV(ctx context.Context, reportTypeID string, actor *models.JWTClaims) ([]byte, string, error) {
	if actor == nil {
		return nil, "", appErrors.ErrUnauthorized
	}

	schema, err := s.schemas.GetSchema(reportTypeID)
	if err != nil {
		return nil, "", err
	}

	office := ""
	if actor.Role != models.RoleAdmin {
		office = actor.Office
	}
	rows, err := s.tables.ListRows(ctx, schema, office)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read stored rows")
	}

	dataset := export.Dataset{Headers: append(schema.ColumnNames(), "Office", "Campus", "Recorded At")}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, row)
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv")
	}
	filename := fmt.Sprintf("%s.csv", reportTypeID)
	return payload, filename, nil
}

// Dashboard aggregates submission counts, served from cache when warm.
func (s *SubmissionService) Dashboard(ctx context.Context) (*dto.DashboardSummary, error) {
	var cached dto.DashboardSummary
	if s.cache != nil {
		if err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil {
			s.metrics.RecordCacheHit(true)
			return &cached, nil
		}
		s.metrics.RecordCacheHit(false)
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "count submissions")
	}

	summary := &dto.DashboardSummary{GeneratedAt: time.Now().UTC()}
	for _, count := range counts {
		summary.Total += count.Count
		switch count.Status {
		case models.SubmissionStatusPending:
			summary.Pending = count.Count
		case models.SubmissionStatusApproved:
			summary.Approved = count.Count
		case models.SubmissionStatusRejected:
			summary.Rejected = count.Count
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

func (s *SubmissionService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func parseStatuses(raw string) ([]models.SubmissionStatus, error) {
	parts := strings.Split(raw, ",")
	statuses := make([]models.SubmissionStatus, 0, len(parts))
	for _, part := range parts {
		status := models.SubmissionStatus(strings.ToUpper(strings.TrimSpace(part)))
		switch status {
		case models.SubmissionStatusPending, models.SubmissionStatusApproved, models.SubmissionStatusRejected:
			statuses = append(statuses, status)
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", part))
		}
	}
	return statuses, nil
}
