package services

import (
	"context"
	"log/slog"

	"team-access-service/internal/models"
	"team-access-service/internal/repository"

	"github.com/google/uuid"
)

// AuditService appends compliance log entries. Record is fire-and-forget:
// audit failures are logged and never surface into the calling operation.
type AuditService struct {
	logs repository.AuditLogRepository
}

func NewAuditService(logs repository.AuditLogRepository) *AuditService {
	return &AuditService{logs: logs}
}

func (s *AuditService) Record(ctx context.Context, actorID, resourceID *uuid.UUID, action models.AuditAction, details string) {
	entry := &models.AuditLog{
		UserID:     actorID,
		ResourceID: resourceID,
		Action:     action,
		Details:    details,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		slog.Error("failed to record audit entry", "action", action, "error", err)
	}
}

func (s *AuditService) GetByUser(ctx context.Context, userID uuid.UUID) ([]models.AuditLog, error) {
	return s.logs.GetByUserID(ctx, userID)
}

func (s *AuditService) GetByResource(ctx context.Context, resourceID uuid.UUID) ([]models.AuditLog, error) {
	return s.logs.GetByResourceID(ctx, resourceID)
}

func (s *AuditService) GetByAction(ctx context.Context, action models.AuditAction) ([]models.AuditLog, error) {
	return s.logs.GetByAction(ctx, action)
}

func (s *AuditService) GetAll(ctx context.Context) ([]models.AuditLog, error) {
	return s.logs.GetAll(ctx)
}
