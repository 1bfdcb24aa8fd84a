package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"team-access-service/internal/models"
	"team-access-service/internal/repository"

	"github.com/google/uuid"
)

// ResourceService manages resources and materializes grants for COMMON ones
// at creation time. The auto-grant is a snapshot: users joining the project
// later do not receive a grant retroactively.
type ResourceService struct {
	resources   repository.ResourceRepository
	users       repository.UserRepository
	projects    repository.ProjectRepository
	permissions repository.PermissionRepository
	resolver    GroupMembershipResolver
	audit       *AuditService
}

func NewResourceService(
	resources repository.ResourceRepository,
	users repository.UserRepository,
	projects repository.ProjectRepository,
	permissions repository.PermissionRepository,
	resolver GroupMembershipResolver,
	audit *AuditService,
) *ResourceService {
	return &ResourceService{
		resources:   resources,
		users:       users,
		projects:    projects,
		permissions: permissions,
		resolver:    resolver,
		audit:       audit,
	}
}

// Create stores the resource and, for COMMON access, grants every eligible
// user up front: ADMIN for elevated roles, READ for everyone else. Individual
// grant failures are logged and skipped so one bad row cannot block the rest.
func (s *ResourceService) Create(ctx context.Context, actorID uuid.UUID, req *models.CreateResourceRequest) (*models.Resource, error) {
	if req.Name == "" {
		return nil, newValidationError("name", "required")
	}
	accessType := req.AccessType
	if accessType == "" {
		accessType = models.ResourceCommon
	}
	if accessType != models.ResourceCommon && accessType != models.ResourceManagerControlled {
		return nil, newValidationError("access_type", "must be COMMON or MANAGER_CONTROLLED")
	}

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load creating user: %w", err)
	}
	if req.ProjectID != nil {
		if _, err := s.projects.GetByID(ctx, *req.ProjectID); err != nil {
			return nil, fmt.Errorf("failed to load project: %w", err)
		}
	}

	resource := &models.Resource{
		Name:              req.Name,
		Description:       req.Description,
		AccessType:        accessType,
		AllowedUserGroups: req.AllowedUserGroups,
		ProjectID:         req.ProjectID,
		IsGlobal:          req.IsGlobal || req.ProjectID == nil,
		CreatedBy:         actor.Username,
	}
	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, err
	}

	if accessType == models.ResourceCommon {
		s.autoGrant(ctx, resource)
	}

	s.audit.Record(ctx, &actorID, &resource.ID, models.AuditResourceCreated,
		fmt.Sprintf("created resource '%s' (%s)", resource.Name, resource.AccessType))
	return resource, nil
}

func (s *ResourceService) autoGrant(ctx context.Context, resource *models.Resource) {
	var eligible []models.User
	var err error
	if resource.ProjectID != nil {
		eligible, err = s.projects.GetMembers(ctx, *resource.ProjectID)
	} else {
		eligible, err = s.users.GetAll(ctx)
	}
	if err != nil {
		slog.Error("failed to list eligible users for auto-grant", "resource_id", resource.ID, "error", err)
		return
	}

	for _, user := range eligible {
		level := models.AccessRead
		if user.Role.IsElevated() {
			level = models.AccessAdmin
		}
		permission := &models.Permission{
			UserID:      user.ID,
			ResourceID:  resource.ID,
			AccessLevel: level,
			IsActive:    true,
		}
		if err := s.permissions.Upsert(ctx, permission); err != nil {
			slog.Warn("auto-grant failed for user, skipping",
				"resource_id", resource.ID, "user_id", user.ID, "error", err)
		}
	}
}

func (s *ResourceService) requireOwner(ctx context.Context, actorID, resourceID uuid.UUID) (*models.Resource, error) {
	resource, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load acting user: %w", err)
	}
	if actor.Username != resource.CreatedBy && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("user %s is not the creator of resource %s: %w", actorID, resourceID, ErrForbidden)
	}
	return resource, nil
}

// UpdateAccessSettings changes the access type and allowed groups. Only the
// creator (or an ADMIN) may do this.
func (s *ResourceService) UpdateAccessSettings(ctx context.Context, actorID, resourceID uuid.UUID, req *models.UpdateResourceAccessRequest) (*models.Resource, error) {
	resource, err := s.requireOwner(ctx, actorID, resourceID)
	if err != nil {
		return nil, err
	}

	if req.AccessType != nil {
		if *req.AccessType != models.ResourceCommon && *req.AccessType != models.ResourceManagerControlled {
			return nil, newValidationError("access_type", "must be COMMON or MANAGER_CONTROLLED")
		}
		resource.AccessType = *req.AccessType
	}
	resource.AllowedUserGroups = req.AllowedUserGroups

	if err := s.resources.Update(ctx, resource); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actorID, &resourceID, models.AuditResourceUpdated,
		fmt.Sprintf("updated access settings of resource '%s'", resource.Name))
	return resource, nil
}

func (s *ResourceService) MakeGlobal(ctx context.Context, actorID, resourceID uuid.UUID) (*models.Resource, error) {
	resource, err := s.requireOwner(ctx, actorID, resourceID)
	if err != nil {
		return nil, err
	}
	resource.IsGlobal = true
	resource.ProjectID = nil
	if err := s.resources.Update(ctx, resource); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actorID, &resourceID, models.AuditResourceUpdated,
		fmt.Sprintf("made resource '%s' global", resource.Name))
	return resource, nil
}

func (s *ResourceService) AssignToProject(ctx context.Context, actorID, resourceID, projectID uuid.UUID) (*models.Resource, error) {
	resource, err := s.requireOwner(ctx, actorID, resourceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	resource.ProjectID = &projectID
	resource.IsGlobal = false
	if err := s.resources.Update(ctx, resource); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actorID, &resourceID, models.AuditResourceUpdated,
		fmt.Sprintf("assigned resource '%s' to project %s", resource.Name, projectID))
	return resource, nil
}

func (s *ResourceService) RemoveFromProject(ctx context.Context, actorID, resourceID uuid.UUID) (*models.Resource, error) {
	resource, err := s.requireOwner(ctx, actorID, resourceID)
	if err != nil {
		return nil, err
	}
	resource.ProjectID = nil
	if err := s.resources.Update(ctx, resource); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actorID, &resourceID, models.AuditResourceUpdated,
		fmt.Sprintf("detached resource '%s' from its project", resource.Name))
	return resource, nil
}

func (s *ResourceService) Delete(ctx context.Context, actorID, resourceID uuid.UUID) error {
	resource, err := s.requireOwner(ctx, actorID, resourceID)
	if err != nil {
		return err
	}
	if err := s.resources.Delete(ctx, resourceID); err != nil {
		return err
	}
	s.audit.Record(ctx, &actorID, &resourceID, models.AuditResourceDeleted,
		fmt.Sprintf("deleted resource '%s'", resource.Name))
	return nil
}

func (s *ResourceService) Get(ctx context.Context, resourceID uuid.UUID) (*models.Resource, error) {
	return s.resources.GetByID(ctx, resourceID)
}

func (s *ResourceService) ListAll(ctx context.Context) ([]models.Resource, error) {
	return s.resources.GetAll(ctx)
}

func (s *ResourceService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Resource, error) {
	return s.resources.GetByProjectID(ctx, projectID)
}

func (s *ResourceService) ListGlobal(ctx context.Context) ([]models.Resource, error) {
	return s.resources.GetGlobal(ctx)
}

// ListAccessibleForUser returns every resource the user can reach, either
// through an effective permission or through a group match.
func (s *ResourceService) ListAccessibleForUser(ctx context.Context, userID uuid.UUID) ([]models.Resource, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resources, err := s.resources.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	permissions, err := s.permissions.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	effective := make(map[uuid.UUID]bool, len(permissions))
	for i := range permissions {
		if permissions[i].Effective(now) {
			effective[permissions[i].ResourceID] = true
		}
	}

	var accessible []models.Resource
	for _, resource := range resources {
		if effective[resource.ID] || s.resolver.Matches(user.Username, resource.AllowedUserGroups) {
			accessible = append(accessible, resource)
		}
	}
	return accessible, nil
}

// ListRequestableForUser returns the resources the user cannot currently
// reach, the candidates for an access request.
func (s *ResourceService) ListRequestableForUser(ctx context.Context, userID uuid.UUID) ([]models.Resource, error) {
	accessible, err := s.ListAccessibleForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	reachable := make(map[uuid.UUID]bool, len(accessible))
	for _, resource := range accessible {
		reachable[resource.ID] = true
	}

	resources, err := s.resources.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var requestable []models.Resource
	for _, resource := range resources {
		if !reachable[resource.ID] {
			requestable = append(requestable, resource)
		}
	}
	return requestable, nil
}
