package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"team-access-service/internal/models"
	"team-access-service/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_Validation(t *testing.T) {
	env := newTestEnv()

	_, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		ResourceID:           uuid.New(),
		RequestedAccessLevel: models.AccessRead,
	})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "user_id", validationErr.Field)

	_, err = env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               uuid.New(),
		ResourceID:           uuid.New(),
		RequestedAccessLevel: "SUPERUSER",
	})
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "requested_access_level", validationErr.Field)
}

func TestSubmit_UnknownUserOrResource(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "bob.data", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", nil)

	_, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               uuid.New(),
		ResourceID:           resource.ID,
		RequestedAccessLevel: models.AccessRead,
	})
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	_, err = env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               user.ID,
		ResourceID:           uuid.New(),
		RequestedAccessLevel: models.AccessRead,
	})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestSubmit_SnapshotsProjectAndManager(t *testing.T) {
	env := newTestEnv()
	manager := env.addUser(t, "mary.manager", models.RoleProjectManager)
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	project := env.addProject(t, "apollo", manager.ID, member.ID)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", &project.ID)

	request, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               member.ID,
		ResourceID:           resource.ID,
		RequestedAccessLevel: models.AccessWrite,
		Justification:        "need to tune the pipeline",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RequestPending, request.Status)
	require.NotNil(t, request.ProjectID)
	assert.Equal(t, project.ID, *request.ProjectID)
	require.NotNil(t, request.ProjectManagerID)
	assert.Equal(t, manager.ID, *request.ProjectManagerID)
	assert.False(t, request.RequestedAt.IsZero())

	// the manager got a notification about the new request
	notifications, err := env.store.Notifications().GetByUserID(context.Background(), manager.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationRequestReceived, notifications[0].Type)
	require.NotNil(t, notifications[0].RelatedRequestID)
	assert.Equal(t, request.ID, *notifications[0].RelatedRequestID)
}

func TestSubmit_ManagerFrozenAfterMembershipChange(t *testing.T) {
	env := newTestEnv()
	manager := env.addUser(t, "mary.manager", models.RoleProjectManager)
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	project := env.addProject(t, "apollo", manager.ID, member.ID)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", &project.ID)

	request, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               member.ID,
		ResourceID:           resource.ID,
		RequestedAccessLevel: models.AccessRead,
	})
	require.NoError(t, err)

	newManager := env.addUser(t, "nick.manager", models.RoleProjectManager)
	require.NoError(t, env.store.Projects().RemoveMember(context.Background(), project.ID, manager.ID))
	require.NoError(t, env.store.Projects().AddMember(context.Background(), project.ID, newManager.ID))

	stored, err := env.requests.Get(context.Background(), request.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ProjectManagerID)
	assert.Equal(t, manager.ID, *stored.ProjectManagerID, "the approver snapshot does not move")
}

func TestSubmit_ProjectWithoutManager(t *testing.T) {
	env := newTestEnv()
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	project := env.addProject(t, "apollo", member.ID)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", &project.ID)

	request, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               member.ID,
		ResourceID:           resource.ID,
		RequestedAccessLevel: models.AccessRead,
	})
	require.NoError(t, err)
	assert.Nil(t, request.ProjectManagerID)
	assert.Equal(t, models.RequestPending, request.Status)
}

func TestSubmit_AllowsDuplicatePendingRequests(t *testing.T) {
	env := newTestEnv()
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", nil)

	submit := &models.SubmitAccessRequest{
		UserID:               member.ID,
		ResourceID:           resource.ID,
		RequestedAccessLevel: models.AccessRead,
	}
	_, err := env.requests.Submit(context.Background(), submit)
	require.NoError(t, err)
	_, err = env.requests.Submit(context.Background(), submit)
	require.NoError(t, err)

	pending, err := env.requests.ListPendingForUser(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestApprove_GrantsRequestedLevel(t *testing.T) {
	env := newTestEnv()
	manager := env.addUser(t, "mary.manager", models.RoleProjectManager)
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	project := env.addProject(t, "apollo", manager.ID, member.ID)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", &project.ID)

	until := time.Now().Add(30 * 24 * time.Hour)
	request, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               member.ID,
		ResourceID:           resource.ID,
		RequestedAccessLevel: models.AccessWrite,
		RequestedUntil:       &until,
	})
	require.NoError(t, err)

	// before the decision the user has no access
	decision, err := env.decisions.Decide(context.Background(), member.ID, resource.ID)
	require.NoError(t, err)
	assert.False(t, decision.Granted)

	approved, err := env.requests.Approve(context.Background(), request.ID, manager.ID, "go ahead")
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, manager.ID, *approved.ApprovedBy)
	require.NotNil(t, approved.DecidedAt)

	decision, err = env.decisions.Decide(context.Background(), member.ID, resource.ID)
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	require.NotNil(t, decision.Level)
	assert.Equal(t, models.AccessWrite, *decision.Level)

	// the granted permission carries the requested validity window
	permission, err := env.store.Permissions().GetByPair(context.Background(), member.ID, resource.ID)
	require.NoError(t, err)
	require.NotNil(t, permission.ExpiresAt)
	assert.WithinDuration(t, until, *permission.ExpiresAt, time.Second)

	// the requester was told
	notifications, err := env.store.Notifications().GetByUserID(context.Background(), member.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationRequestApproved, notifications[0].Type)
}

func TestApprove_UpsertsExistingPermission(t *testing.T) {
	env := newTestEnv()
	manager := env.addUser(t, "mary.manager", models.RoleProjectManager)
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", nil)
	env.grant(t, member.ID, resource.ID, models.AccessRead, nil, true)

	request, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               member.ID,
		ResourceID:           resource.ID,
		RequestedAccessLevel: models.AccessAdmin,
	})
	require.NoError(t, err)

	_, err = env.requests.Approve(context.Background(), request.ID, manager.ID, "")
	require.NoError(t, err)

	permissions, err := env.store.Permissions().GetByUserID(context.Background(), member.ID)
	require.NoError(t, err)
	require.Len(t, permissions, 1, "one permission row per (user, resource) pair")
	assert.Equal(t, models.AccessAdmin, permissions[0].AccessLevel)
}

func TestReject_WritesNoPermission(t *testing.T) {
	env := newTestEnv()
	manager := env.addUser(t, "mary.manager", models.RoleProjectManager)
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", nil)

	request, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               member.ID,
		ResourceID:           resource.ID,
		RequestedAccessLevel: models.AccessWrite,
	})
	require.NoError(t, err)

	rejected, err := env.requests.Reject(context.Background(), request.ID, manager.ID, "not needed for your work")
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, rejected.Status)

	decision, err := env.decisions.Decide(context.Background(), member.ID, resource.ID)
	require.NoError(t, err)
	assert.False(t, decision.Granted)

	notifications, err := env.store.Notifications().GetByUserID(context.Background(), member.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationRequestRejected, notifications[0].Type)
	assert.Contains(t, notifications[0].Message, "not needed for your work")
}

func TestDecide_SecondDecisionFails(t *testing.T) {
	env := newTestEnv()
	manager := env.addUser(t, "mary.manager", models.RoleProjectManager)
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", nil)

	request, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               member.ID,
		ResourceID:           resource.ID,
		RequestedAccessLevel: models.AccessWrite,
	})
	require.NoError(t, err)

	_, err = env.requests.Approve(context.Background(), request.ID, manager.ID, "")
	require.NoError(t, err)

	_, err = env.requests.Approve(context.Background(), request.ID, manager.ID, "again")
	assert.True(t, errors.Is(err, ErrInvalidStateTransition))

	_, err = env.requests.Reject(context.Background(), request.ID, manager.ID, "changed my mind")
	assert.True(t, errors.Is(err, ErrInvalidStateTransition), "a decided request cannot be re-decided")

	stored, err := env.requests.Get(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, stored.Status, "the first decision stands")
}

func TestReject_ThenApproveFails(t *testing.T) {
	env := newTestEnv()
	manager := env.addUser(t, "mary.manager", models.RoleProjectManager)
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", nil)

	request, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               member.ID,
		ResourceID:           resource.ID,
		RequestedAccessLevel: models.AccessWrite,
	})
	require.NoError(t, err)

	_, err = env.requests.Reject(context.Background(), request.ID, manager.ID, "")
	require.NoError(t, err)

	_, err = env.requests.Approve(context.Background(), request.ID, manager.ID, "")
	assert.True(t, errors.Is(err, ErrInvalidStateTransition))

	decision, err := env.decisions.Decide(context.Background(), member.ID, resource.ID)
	require.NoError(t, err)
	assert.False(t, decision.Granted, "no permission leaks out of a failed approval")
}

func TestDecide_UnknownRequest(t *testing.T) {
	env := newTestEnv()
	approver := env.addUser(t, "mary.manager", models.RoleProjectManager)

	_, err := env.requests.Approve(context.Background(), uuid.New(), approver.ID, "")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestUpdate_OnlyRequesterWhilePending(t *testing.T) {
	env := newTestEnv()
	manager := env.addUser(t, "mary.manager", models.RoleProjectManager)
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", nil)

	request, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               member.ID,
		ResourceID:           resource.ID,
		RequestedAccessLevel: models.AccessWrite,
		Justification:        "original",
	})
	require.NoError(t, err)

	newJustification := "better reason"
	_, err = env.requests.Update(context.Background(), manager.ID, request.ID, &models.UpdateAccessRequest{
		Justification: &newJustification,
	})
	assert.True(t, errors.Is(err, ErrForbidden))

	updated, err := env.requests.Update(context.Background(), member.ID, request.ID, &models.UpdateAccessRequest{
		Justification: &newJustification,
	})
	require.NoError(t, err)
	assert.Equal(t, "better reason", updated.Justification)

	_, err = env.requests.Approve(context.Background(), request.ID, manager.ID, "")
	require.NoError(t, err)

	_, err = env.requests.Update(context.Background(), member.ID, request.ID, &models.UpdateAccessRequest{
		Justification: &newJustification,
	})
	assert.True(t, errors.Is(err, ErrInvalidStateTransition), "decided requests are frozen")
}

func TestPendingQueues_OldestFirst(t *testing.T) {
	env := newTestEnv()
	manager := env.addUser(t, "mary.manager", models.RoleProjectManager)
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	project := env.addProject(t, "apollo", manager.ID, member.ID)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", &project.ID)

	first, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID: member.ID, ResourceID: resource.ID, RequestedAccessLevel: models.AccessRead,
	})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID: member.ID, ResourceID: resource.ID, RequestedAccessLevel: models.AccessWrite,
	})
	require.NoError(t, err)

	pending, err := env.requests.ListPendingForManager(context.Background(), manager.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)

	_, err = env.requests.Reject(context.Background(), first.ID, manager.ID, "")
	require.NoError(t, err)

	pending, err = env.requests.ListPendingForManager(context.Background(), manager.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
}

// Full request lifecycle: no access, request, approve, access at the
// requested level.
func TestWorkflow_EndToEnd(t *testing.T) {
	env := newTestEnv()
	manager := env.addUser(t, "mary.manager", models.RoleProjectManager)
	member := env.addUser(t, "dave.mobile", models.RoleTeamMember)
	project := env.addProject(t, "apollo", manager.ID, member.ID)
	resource := env.addResource(t, "deploy-keys", models.ResourceManagerControlled, "platform", &project.ID)

	decision, err := env.decisions.Decide(context.Background(), member.ID, resource.ID)
	require.NoError(t, err)
	require.False(t, decision.Granted, "no explicit grant and no group match")

	request, err := env.requests.Submit(context.Background(), &models.SubmitAccessRequest{
		UserID:               member.ID,
		ResourceID:           resource.ID,
		RequestedAccessLevel: models.AccessWrite,
		Justification:        "release duty this sprint",
	})
	require.NoError(t, err)

	decision, err = env.decisions.Decide(context.Background(), member.ID, resource.ID)
	require.NoError(t, err)
	require.False(t, decision.Granted, "a pending request grants nothing")

	_, err = env.requests.Approve(context.Background(), request.ID, manager.ID, "approved for the sprint")
	require.NoError(t, err)

	decision, err = env.decisions.Decide(context.Background(), member.ID, resource.ID)
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	require.NotNil(t, decision.Level)
	assert.Equal(t, models.AccessWrite, *decision.Level)
}
