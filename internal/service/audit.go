package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/emu-ics/report-portal-api/internal/models"
)

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// emitAudit records an audit entry. Audit failures are logged and swallowed;
// they never fail the operation that triggered them.
func emitAudit(ctx context.Context, recorder auditRecorder, logger *zap.Logger, actor *models.JWTClaims, action models.AuditAction, resource, resourceID string, newValues interface{}) {
	if recorder == nil {
		return
	}

	entry := &models.AuditLog{
		Action:   action,
		Resource: resource,
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if actor != nil {
		id := actor.UserID
		entry.UserID = &id
	}
	if newValues != nil {
		if payload, err := json.Marshal(newValues); err == nil {
			entry.NewValues = payload
		}
	}

	if err := recorder.CreateAuditLog(ctx, entry); err != nil && logger != nil {
		logger.Warn("audit log write failed",
			zap.String("action", string(action)),
			zap.String("resource", resource),
			zap.Error(err))
	}
}
