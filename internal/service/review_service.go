package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emu-ics/report-portal-api/internal/dto"
	"github.com/emu-ics/report-portal-api/internal/models"
	"github.com/emu-ics/report-portal-api/internal/repository"
	appErrors "github.com/emu-ics/report-portal-api/pkg/errors"
)

type reviewSubmissionStore interface {
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus, reviewedBy string, reviewedAt time.Time, note *string) error
}

type provisioner interface {
	StoreApproved(ctx context.Context, params repository.StoreApprovedParams) error
}

// ReviewService drives the PENDING -> APPROVED/REJECTED transition. Approval
// provisions the per-report-type storage table and copies the rows into it in
// the same transaction that claims the submission, so a failure anywhere
// leaves the submission PENDING and the table untouched.
type ReviewService struct {
	repo    reviewSubmissionStore
	tables  provisioner
	schemas schemaResolver
	cache   summaryCache
	audit   auditRecorder
	metrics *MetricsService
	logger  *zap.Logger
}

// NewReviewService constructs the service.
func NewReviewService(repo reviewSubmissionStore, tables provisioner, schemas schemaResolver, cache summaryCache, audit auditRecorder, metrics *MetricsService, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		repo:    repo,
		tables:  tables,
		schemas: schemas,
		cache:   cache,
		audit:   audit,
		metrics: metrics,
		logger:  logger,
	}
}

// Review applies an admin decision to a pending submission.
func (s *ReviewService) Review(ctx context.Context, id string, req dto.ReviewSubmissionRequest, actor *models.JWTClaims) (*models.Submission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if req.Status != models.SubmissionStatusApproved && req.Status != models.SubmissionStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("status must be %s or %s", models.SubmissionStatusApproved, models.SubmissionStatusRejected))
	}

	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load submission")
	}
	if submission.Status != models.SubmissionStatusPending {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("submission is already %s", submission.Status))
	}

	reviewedAt := time.Now().UTC()
	var note *string
	if req.Note != "" {
		value := req.Note
		note = &value
	}

	switch req.Status {
	case models.SubmissionStatusRejected:
		err = s.reject(ctx, submission, reviewedAt, actor.UserID, note)
	case models.SubmissionStatusApproved:
		err = s.approve(ctx, submission, reviewedAt, actor.UserID, note)
	}
	if err != nil {
		return nil, err
	}

	submission.Status = req.Status
	reviewedBy := actor.UserID
	submission.ReviewedBy = &reviewedBy
	submission.ReviewedAt = &reviewedAt
	submission.Note = note

	s.metrics.RecordReview(string(req.Status))
	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionSubmissionReview, "submission", submission.ID,
		map[string]interface{}{"status": req.Status, "note": req.Note})
	s.invalidateDashboard(ctx)
	s.logger.Info("submission reviewed",
		zap.String("submission_id", submission.ID),
		zap.String("status", string(req.Status)),
		zap.String("reviewed_by", actor.UserID))
	return submission, nil
}

func (s *ReviewService) reject(ctx context.Context, submission *models.Submission, reviewedAt time.Time, reviewedBy string, note *string) error {
	err := s.repo.UpdateStatus(ctx, submission.ID, models.SubmissionStatusRejected, reviewedBy, reviewedAt, note)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrIllegalTransition, "submission was reviewed concurrently")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "reject submission")
	}
	return nil
}

func (s *ReviewService) approve(ctx context.Context, submission *models.Submission, reviewedAt time.Time, reviewedBy string, note *string) error {
	schema, err := s.schemas.GetSchema(submission.ReportTypeID)
	if err != nil {
		return appErrors.Clone(appErrors.ErrIntegrityDefect,
			fmt.Sprintf("submission %s references unknown report type %q", submission.ID, submission.ReportTypeID))
	}

	var rows []models.RowRecord
	if err := json.Unmarshal(submission.Payload, &rows); err != nil {
		return appErrors.Clone(appErrors.ErrIntegrityDefect,
			fmt.Sprintf("submission %s payload is malformed", submission.ID))
	}
	if len(rows) == 0 {
		return appErrors.Clone(appErrors.ErrIntegrityDefect,
			fmt.Sprintf("submission %s has no rows to store", submission.ID))
	}

	err = s.tables.StoreApproved(ctx, repository.StoreApprovedParams{
		Submission: submission,
		Schema:     schema,
		Rows:       rows,
		ReviewedBy: reviewedBy,
		ReviewedAt: reviewedAt,
		Note:       note,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrIllegalTransition, "submission was reviewed concurrently")
		}
		s.logger.Error("approve transition failed",
			zap.String("submission_id", submission.ID),
			zap.String("report_type", submission.ReportTypeID),
			zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrProvisioningFailure.Code, appErrors.ErrProvisioningFailure.Status,
			"approval did not take effect; submission remains pending")
	}
	return nil
}

func (s *ReviewService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
