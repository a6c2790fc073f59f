package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emu-ics/report-portal-api/internal/dto"
	"github.com/emu-ics/report-portal-api/internal/models"
	appErrors "github.com/emu-ics/report-portal-api/pkg/errors"
)

type assignmentStore interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	Deactivate(ctx context.Context, id string) error
}

type schemaResolver interface {
	GetSchema(reportTypeID string) (*models.ReportTypeSchema, error)
}

// AssignmentService manages which offices owe which report types.
type AssignmentService struct {
	repo     assignmentStore
	schemas  schemaResolver
	audit    auditRecorder
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(repo assignmentStore, schemas schemaResolver, audit auditRecorder, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		repo:     repo,
		schemas:  schemas,
		audit:    audit,
		validate: validator.New(),
		logger:   logger,
	}
}

// Create grants a report type to an office. Status always starts ACTIVE.
func (s *AssignmentService) Create(ctx context.Context, req dto.CreateAssignmentRequest, actor *models.JWTClaims) (*models.Assignment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if _, err := s.schemas.GetSchema(req.ReportTypeID); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		ReportTypeID: req.ReportTypeID,
		Office:       req.Office,
	}
	if req.Deadline != nil {
		assignment.Deadline = req.Deadline
	}
	if req.Priority != "" {
		priority := req.Priority
		assignment.Priority = &priority
	}
	createdBy := actor.UserID
	assignment.CreatedBy = &createdBy

	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create assignment")
	}

	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionAssignmentCreate, "assignment", assignment.ID, assignment)
	s.logger.Info("assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("report_type", assignment.ReportTypeID),
		zap.String("office", assignment.Office))
	return assignment, nil
}

// List returns assignments matching the query. Office users only ever see
// their own office's active assignments; admins see everything the query asks
// for. A row with an empty status is a stored-data defect and aborts the
// read so it gets repaired instead of silently hidden.
func (s *AssignmentService) List(ctx context.Context, query dto.AssignmentQuery, actor *models.JWTClaims) ([]models.Assignment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	filter := models.AssignmentFilter{
		Office:          query.Office,
		ReportTypeID:    query.ReportTypeID,
		IncludeInactive: query.IncludeInactive,
	}
	if actor.Role != models.RoleAdmin {
		filter.Office = actor.Office
		filter.IncludeInactive = false
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list assignments")
	}

	assignments := make([]models.Assignment, 0, len(rows))
	for _, assignment := range rows {
		if assignment.Status == "" {
			s.logger.Error("assignment with empty status", zap.String("assignment_id", assignment.ID))
			return nil, appErrors.Clone(appErrors.ErrIntegrityDefect,
				fmt.Sprintf("assignment %s has no status and needs repair", assignment.ID))
		}
		if assignment.Status == models.AssignmentStatusInactive && !filter.IncludeInactive {
			continue
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}

// Deactivate retires an assignment. Assignments are never deleted.
func (s *AssignmentService) Deactivate(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}

	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load assignment")
	}
	if assignment.Status == "" {
		return appErrors.Clone(appErrors.ErrIntegrityDefect,
			fmt.Sprintf("assignment %s has no status and needs repair", assignment.ID))
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "assignment is already inactive")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "deactivate assignment")
	}

	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionAssignmentDeactivate, "assignment", id, nil)
	s.logger.Info("assignment deactivated", zap.String("assignment_id", id))
	return nil
}

// ActiveForOffice reports whether the office currently holds an active grant
// for the report type. Office matching is case-insensitive.
func (s *AssignmentService) ActiveForOffice(ctx context.Context, reportTypeID, office string) (bool, error) {
	rows, err := s.repo.List(ctx, models.AssignmentFilter{Office: office, ReportTypeID: reportTypeID})
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list assignments")
	}
	for _, assignment := range rows {
		if assignment.Status == "" {
			return false, appErrors.Clone(appErrors.ErrIntegrityDefect,
				fmt.Sprintf("assignment %s has no status and needs repair", assignment.ID))
		}
		if assignment.Status == models.AssignmentStatusActive {
			return true, nil
		}
	}
	return false, nil
}
