package services

import (
	"context"
	"fmt"
	"time"

	"team-access-service/internal/models"
	"team-access-service/internal/repository"

	"github.com/google/uuid"
)

// PermissionService manages explicit grants directly, outside the request
// workflow. Every mutation lands an audit entry.
type PermissionService struct {
	permissions repository.PermissionRepository
	users       repository.UserRepository
	resources   repository.ResourceRepository
	audit       *AuditService
}

func NewPermissionService(
	permissions repository.PermissionRepository,
	users repository.UserRepository,
	resources repository.ResourceRepository,
	audit *AuditService,
) *PermissionService {
	return &PermissionService{
		permissions: permissions,
		users:       users,
		resources:   resources,
		audit:       audit,
	}
}

// Grant creates or replaces the permission for the (user, resource) pair.
func (s *PermissionService) Grant(ctx context.Context, actorID uuid.UUID, req *models.GrantPermissionRequest) (*models.Permission, error) {
	if req.UserID == uuid.Nil {
		return nil, newValidationError("user_id", "required")
	}
	if req.ResourceID == uuid.Nil {
		return nil, newValidationError("resource_id", "required")
	}
	if !req.AccessLevel.Valid() {
		return nil, newValidationError("access_level", "must be one of READ, WRITE, ADMIN, FULL_ACCESS")
	}

	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("failed to load grantee: %w", err)
	}
	if _, err := s.resources.GetByID(ctx, req.ResourceID); err != nil {
		return nil, fmt.Errorf("failed to load resource: %w", err)
	}

	permission := &models.Permission{
		UserID:      req.UserID,
		ResourceID:  req.ResourceID,
		AccessLevel: req.AccessLevel,
		ExpiresAt:   req.ExpiresAt,
		IsActive:    true,
	}
	if err := s.permissions.Upsert(ctx, permission); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actorID, &req.ResourceID, models.AuditAccessGranted,
		fmt.Sprintf("granted %s to user %s", req.AccessLevel, req.UserID))
	return permission, nil
}

// Revoke deactivates the pair's permission. The row stays for history.
func (s *PermissionService) Revoke(ctx context.Context, actorID, userID, resourceID uuid.UUID) error {
	permission, err := s.permissions.GetByPair(ctx, userID, resourceID)
	if err != nil {
		return err
	}
	if err := s.permissions.Deactivate(ctx, permission.ID); err != nil {
		return err
	}
	s.audit.Record(ctx, &actorID, &resourceID, models.AuditAccessRevoked,
		fmt.Sprintf("revoked access of user %s", userID))
	return nil
}

func (s *PermissionService) Activate(ctx context.Context, actorID, userID, resourceID uuid.UUID) error {
	permission, err := s.permissions.GetByPair(ctx, userID, resourceID)
	if err != nil {
		return err
	}
	permission.IsActive = true
	if err := s.permissions.Update(ctx, permission); err != nil {
		return err
	}
	s.audit.Record(ctx, &actorID, &resourceID, models.AuditPermissionChanged,
		fmt.Sprintf("reactivated access of user %s", userID))
	return nil
}

// Extend moves the expiry of an existing permission.
func (s *PermissionService) Extend(ctx context.Context, actorID, userID, resourceID uuid.UUID, expiresAt time.Time) (*models.Permission, error) {
	if expiresAt.Before(time.Now()) {
		return nil, newValidationError("expires_at", "must be in the future")
	}
	permission, err := s.permissions.GetByPair(ctx, userID, resourceID)
	if err != nil {
		return nil, err
	}
	permission.ExpiresAt = &expiresAt
	if err := s.permissions.Update(ctx, permission); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actorID, &resourceID, models.AuditPermissionChanged,
		fmt.Sprintf("extended access of user %s until %s", userID, expiresAt.Format(time.RFC3339)))
	return permission, nil
}

// MakePermanent clears the expiry so the grant no longer lapses.
func (s *PermissionService) MakePermanent(ctx context.Context, actorID, userID, resourceID uuid.UUID) (*models.Permission, error) {
	permission, err := s.permissions.GetByPair(ctx, userID, resourceID)
	if err != nil {
		return nil, err
	}
	permission.ExpiresAt = nil
	if err := s.permissions.Update(ctx, permission); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actorID, &resourceID, models.AuditPermissionChanged,
		fmt.Sprintf("made access of user %s permanent", userID))
	return permission, nil
}

func (s *PermissionService) GetByPair(ctx context.Context, userID, resourceID uuid.UUID) (*models.Permission, error) {
	return s.permissions.GetByPair(ctx, userID, resourceID)
}

func (s *PermissionService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Permission, error) {
	return s.permissions.GetByUserID(ctx, userID)
}

func (s *PermissionService) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]models.Permission, error) {
	return s.permissions.GetByResourceID(ctx, resourceID)
}

func (s *PermissionService) ListActive(ctx context.Context) ([]models.Permission, error) {
	return s.permissions.GetActive(ctx)
}

func (s *PermissionService) ListExpired(ctx context.Context) ([]models.Permission, error) {
	return s.permissions.GetExpired(ctx, time.Now())
}
