package services

import (
	"context"
	"errors"
	"testing"

	"team-access-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateResource_CommonAutoGrantsProjectMembers(t *testing.T) {
	env := newTestEnv()
	manager := env.addUser(t, "mary.manager", models.RoleProjectManager)
	lead := env.addUser(t, "lara.lead", models.RoleTeamLead)
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	outsider := env.addUser(t, "oscar.infra", models.RoleTeamMember)
	project := env.addProject(t, "apollo", manager.ID, lead.ID, member.ID)

	resource, err := env.resources.Create(context.Background(), manager.ID, &models.CreateResourceRequest{
		Name:       "team-wiki",
		AccessType: models.ResourceCommon,
		ProjectID:  &project.ID,
	})
	require.NoError(t, err)

	managerPerm, err := env.store.Permissions().GetByPair(context.Background(), manager.ID, resource.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAdmin, managerPerm.AccessLevel)

	leadPerm, err := env.store.Permissions().GetByPair(context.Background(), lead.ID, resource.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAdmin, leadPerm.AccessLevel, "team leads count as elevated")

	memberPerm, err := env.store.Permissions().GetByPair(context.Background(), member.ID, resource.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessRead, memberPerm.AccessLevel)

	_, err = env.store.Permissions().GetByPair(context.Background(), outsider.ID, resource.ID)
	assert.Error(t, err, "non-members get nothing")
}

func TestCreateResource_CommonGlobalGrantsAllUsers(t *testing.T) {
	env := newTestEnv()
	admin := env.addUser(t, "ada.admin", models.RoleAdmin)
	viewer := env.addUser(t, "vera.viewer", models.RoleViewer)

	resource, err := env.resources.Create(context.Background(), admin.ID, &models.CreateResourceRequest{
		Name: "handbook",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResourceCommon, resource.AccessType, "access type defaults to COMMON")
	assert.True(t, resource.IsGlobal, "no project means global")

	adminPerm, err := env.store.Permissions().GetByPair(context.Background(), admin.ID, resource.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAdmin, adminPerm.AccessLevel)

	viewerPerm, err := env.store.Permissions().GetByPair(context.Background(), viewer.ID, resource.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessRead, viewerPerm.AccessLevel)
}

func TestCreateResource_ManagerControlledGrantsNothing(t *testing.T) {
	env := newTestEnv()
	manager := env.addUser(t, "mary.manager", models.RoleProjectManager)
	member := env.addUser(t, "bob.data", models.RoleTeamMember)
	project := env.addProject(t, "apollo", manager.ID, member.ID)

	resource, err := env.resources.Create(context.Background(), manager.ID, &models.CreateResourceRequest{
		Name:       "prod-db",
		AccessType: models.ResourceManagerControlled,
		ProjectID:  &project.ID,
	})
	require.NoError(t, err)

	permissions, err := env.store.Permissions().GetByResourceID(context.Background(), resource.ID)
	require.NoError(t, err)
	assert.Empty(t, permissions)
}

func TestUpdateAccessSettings_CreatorOnly(t *testing.T) {
	env := newTestEnv()
	creator := env.addUser(t, "carl.platform", models.RoleTeamLead)
	other := env.addUser(t, "bob.data", models.RoleTeamMember)
	admin := env.addUser(t, "ada.admin", models.RoleAdmin)

	resource, err := env.resources.Create(context.Background(), creator.ID, &models.CreateResourceRequest{
		Name:       "secrets-vault",
		AccessType: models.ResourceManagerControlled,
	})
	require.NoError(t, err)

	common := models.ResourceCommon
	_, err = env.resources.UpdateAccessSettings(context.Background(), other.ID, resource.ID, &models.UpdateResourceAccessRequest{
		AccessType: &common,
	})
	assert.True(t, errors.Is(err, ErrForbidden))

	updated, err := env.resources.UpdateAccessSettings(context.Background(), creator.ID, resource.ID, &models.UpdateResourceAccessRequest{
		AccessType:        &common,
		AllowedUserGroups: "platform",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResourceCommon, updated.AccessType)
	assert.Equal(t, "platform", updated.AllowedUserGroups)

	// ADMIN may edit resources they did not create
	_, err = env.resources.UpdateAccessSettings(context.Background(), admin.ID, resource.ID, &models.UpdateResourceAccessRequest{
		AllowedUserGroups: "platform,data",
	})
	assert.NoError(t, err)
}

func TestResource_ProjectAssignment(t *testing.T) {
	env := newTestEnv()
	creator := env.addUser(t, "carl.platform", models.RoleTeamLead)
	project := env.addProject(t, "apollo", creator.ID)

	resource, err := env.resources.Create(context.Background(), creator.ID, &models.CreateResourceRequest{
		Name:       "dashboards",
		AccessType: models.ResourceManagerControlled,
	})
	require.NoError(t, err)
	assert.True(t, resource.IsGlobal)

	assigned, err := env.resources.AssignToProject(context.Background(), creator.ID, resource.ID, project.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.ProjectID)
	assert.Equal(t, project.ID, *assigned.ProjectID)
	assert.False(t, assigned.IsGlobal)

	global, err := env.resources.MakeGlobal(context.Background(), creator.ID, resource.ID)
	require.NoError(t, err)
	assert.True(t, global.IsGlobal)
	assert.Nil(t, global.ProjectID)
}

func TestListAccessibleAndRequestable(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "alice.platform", models.RoleTeamMember)
	byGroup := env.addResource(t, "wiki", models.ResourceCommon, "platform", nil)
	byGrant := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", nil)
	locked := env.addResource(t, "prod-db", models.ResourceManagerControlled, "data", nil)
	env.grant(t, user.ID, byGrant.ID, models.AccessRead, nil, true)

	accessible, err := env.resources.ListAccessibleForUser(context.Background(), user.ID)
	require.NoError(t, err)
	accessibleIDs := make(map[string]bool)
	for _, r := range accessible {
		accessibleIDs[r.ID.String()] = true
	}
	assert.True(t, accessibleIDs[byGroup.ID.String()])
	assert.True(t, accessibleIDs[byGrant.ID.String()])
	assert.False(t, accessibleIDs[locked.ID.String()])

	requestable, err := env.resources.ListRequestableForUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, requestable, 1)
	assert.Equal(t, locked.ID, requestable[0].ID)
}

func TestDeleteResource(t *testing.T) {
	env := newTestEnv()
	creator := env.addUser(t, "carl.platform", models.RoleTeamLead)
	other := env.addUser(t, "bob.data", models.RoleTeamMember)

	resource, err := env.resources.Create(context.Background(), creator.ID, &models.CreateResourceRequest{
		Name:       "scratch-space",
		AccessType: models.ResourceManagerControlled,
	})
	require.NoError(t, err)

	err = env.resources.Delete(context.Background(), other.ID, resource.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	require.NoError(t, env.resources.Delete(context.Background(), creator.ID, resource.ID))
	_, err = env.resources.Get(context.Background(), resource.ID)
	assert.Error(t, err)
}
