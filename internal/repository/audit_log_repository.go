package repository

import (
	"context"
	"fmt"
	"time"

	"team-access-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// AuditLogRepository appends and queries compliance log entries.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.AuditLog, error)
	GetByResourceID(ctx context.Context, resourceID uuid.UUID) ([]models.AuditLog, error)
	GetByAction(ctx context.Context, action models.AuditAction) ([]models.AuditLog, error)
	GetAll(ctx context.Context) ([]models.AuditLog, error)
}

type auditLogRepository struct {
	db *sqlx.DB
}

func NewAuditLogRepository(db *sqlx.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

const auditLogColumns = `id, user_id, resource_id, action, details, created_at`

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO audit_logs (id, user_id, resource_id, action, details, created_at)
		VALUES (:id, :user_id, :resource_id, :action, :details, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

func (r *auditLogRepository) selectLogs(ctx context.Context, query string, args ...any) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.SelectContext(ctx, &logs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}
	return logs, nil
}

func (r *auditLogRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.AuditLog, error) {
	return r.selectLogs(ctx, `SELECT `+auditLogColumns+` FROM audit_logs WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *auditLogRepository) GetByResourceID(ctx context.Context, resourceID uuid.UUID) ([]models.AuditLog, error) {
	return r.selectLogs(ctx, `SELECT `+auditLogColumns+` FROM audit_logs WHERE resource_id = $1 ORDER BY created_at DESC`, resourceID)
}

func (r *auditLogRepository) GetByAction(ctx context.Context, action models.AuditAction) ([]models.AuditLog, error) {
	return r.selectLogs(ctx, `SELECT `+auditLogColumns+` FROM audit_logs WHERE action = $1 ORDER BY created_at DESC`, action)
}

func (r *auditLogRepository) GetAll(ctx context.Context) ([]models.AuditLog, error) {
	return r.selectLogs(ctx, `SELECT `+auditLogColumns+` FROM audit_logs ORDER BY created_at DESC`)
}
