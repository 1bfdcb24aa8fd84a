package services

import (
	"context"
	"testing"
	"time"

	"team-access-service/internal/models"
	"team-access-service/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// testEnv wires the full service stack onto the in-memory stores. Redis and
// RabbitMQ are absent, so notifications fall back to plain rows.
type testEnv struct {
	store *memory.Store

	decisions     *AccessDecisionService
	requests      *AccessRequestService
	permissions   *PermissionService
	resources     *ResourceService
	notifications *NotificationService
	audit         *AuditService
}

func newTestEnv() *testEnv {
	store := memory.NewStore()
	resolver := NewGroupMembershipResolver()
	audit := NewAuditService(store.AuditLogs())
	notifications := NewNotificationService(store.Notifications(), nil, nil)

	return &testEnv{
		store:         store,
		decisions:     NewAccessDecisionService(store.Users(), store.Resources(), store.Permissions(), resolver),
		requests:      NewAccessRequestService(store.AccessRequests(), store.Users(), store.Resources(), store.Projects(), store.Permissions(), notifications, audit),
		permissions:   NewPermissionService(store.Permissions(), store.Users(), store.Resources(), audit),
		resources:     NewResourceService(store.Resources(), store.Users(), store.Projects(), store.Permissions(), resolver, audit),
		notifications: notifications,
		audit:         audit,
	}
}

func (e *testEnv) addUser(t *testing.T, username string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: username,
		Role:     role,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), user))
	return user
}

func (e *testEnv) addProject(t *testing.T, name string, memberIDs ...uuid.UUID) *models.Project {
	t.Helper()
	project := &models.Project{Name: name}
	require.NoError(t, e.store.Projects().Create(context.Background(), project))
	for _, id := range memberIDs {
		require.NoError(t, e.store.Projects().AddMember(context.Background(), project.ID, id))
	}
	return project
}

func (e *testEnv) addResource(t *testing.T, name string, accessType models.ResourceAccessType, groups string, projectID *uuid.UUID) *models.Resource {
	t.Helper()
	resource := &models.Resource{
		Name:              name,
		AccessType:        accessType,
		AllowedUserGroups: groups,
		ProjectID:         projectID,
		IsGlobal:          projectID == nil,
		CreatedBy:         "owner.platform",
	}
	require.NoError(t, e.store.Resources().Create(context.Background(), resource))
	return resource
}

func (e *testEnv) grant(t *testing.T, userID, resourceID uuid.UUID, level models.AccessLevel, expiresAt *time.Time, active bool) *models.Permission {
	t.Helper()
	permission := &models.Permission{
		UserID:      userID,
		ResourceID:  resourceID,
		AccessLevel: level,
		ExpiresAt:   expiresAt,
		IsActive:    active,
	}
	require.NoError(t, e.store.Permissions().Upsert(context.Background(), permission))
	return permission
}
