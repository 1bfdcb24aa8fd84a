package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"team-access-service/internal/models"
	"team-access-service/internal/repository"

	"github.com/google/uuid"
)

// AccessDecisionService answers "can this user access this resource right
// now". An explicit active, unexpired permission wins and carries its level;
// otherwise a group match on the resource's allowed groups grants access with
// no level. Storage failures are returned as errors, never as a denial.
type AccessDecisionService struct {
	users       repository.UserRepository
	resources   repository.ResourceRepository
	permissions repository.PermissionRepository
	resolver    GroupMembershipResolver
}

func NewAccessDecisionService(
	users repository.UserRepository,
	resources repository.ResourceRepository,
	permissions repository.PermissionRepository,
	resolver GroupMembershipResolver,
) *AccessDecisionService {
	return &AccessDecisionService{
		users:       users,
		resources:   resources,
		permissions: permissions,
		resolver:    resolver,
	}
}

func (s *AccessDecisionService) Decide(ctx context.Context, userID, resourceID uuid.UUID) (*models.Decision, error) {
	permission, err := s.permissions.GetByPair(ctx, userID, resourceID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check explicit permission: %w", err)
	}
	if permission != nil && permission.Effective(time.Now()) {
		level := permission.AccessLevel
		return &models.Decision{Granted: true, Level: &level}, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user for group check: %w", err)
	}
	resource, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resource for group check: %w", err)
	}

	if s.resolver.Matches(user.Username, resource.AllowedUserGroups) {
		return &models.Decision{Granted: true}, nil
	}
	return &models.Decision{Granted: false}, nil
}

// HasPermissionLevel reports whether the user's access covers the required
// level. Group-based access carries no stored level and counts as READ.
func (s *AccessDecisionService) HasPermissionLevel(ctx context.Context, userID, resourceID uuid.UUID, required models.AccessLevel) (bool, error) {
	decision, err := s.Decide(ctx, userID, resourceID)
	if err != nil {
		return false, err
	}
	if !decision.Granted {
		return false, nil
	}
	level := models.AccessRead
	if decision.Level != nil {
		level = *decision.Level
	}
	return level.Covers(required), nil
}

// UserAccessLevel returns the level of the user's effective explicit
// permission, or nil when none exists.
func (s *AccessDecisionService) UserAccessLevel(ctx context.Context, userID, resourceID uuid.UUID) (*models.AccessLevel, error) {
	permission, err := s.permissions.GetByPair(ctx, userID, resourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	if !permission.Effective(time.Now()) {
		return nil, nil
	}
	level := permission.AccessLevel
	return &level, nil
}
