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

func TestDecide_ExplicitPermissionWins(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "alice.platform", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "platform", nil)
	env.grant(t, user.ID, resource.ID, models.AccessWrite, nil, true)

	decision, err := env.decisions.Decide(context.Background(), user.ID, resource.ID)
	require.NoError(t, err)

	assert.True(t, decision.Granted)
	require.NotNil(t, decision.Level, "explicit permission carries its level even when a group also matches")
	assert.Equal(t, models.AccessWrite, *decision.Level)
}

func TestDecide_GroupMatchGrantsWithoutLevel(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "alice.platform", models.RoleTeamMember)
	resource := env.addResource(t, "wiki", models.ResourceCommon, "platform,data", nil)

	decision, err := env.decisions.Decide(context.Background(), user.ID, resource.ID)
	require.NoError(t, err)

	assert.True(t, decision.Granted)
	assert.Nil(t, decision.Level, "implicit access has no stored level")
}

func TestDecide_ExpiredPermissionFallsBackToGroups(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "alice.platform", models.RoleTeamMember)
	resource := env.addResource(t, "wiki", models.ResourceCommon, "platform", nil)
	past := time.Now().Add(-time.Hour)
	env.grant(t, user.ID, resource.ID, models.AccessAdmin, &past, true)

	decision, err := env.decisions.Decide(context.Background(), user.ID, resource.ID)
	require.NoError(t, err)

	assert.True(t, decision.Granted, "group still matches")
	assert.Nil(t, decision.Level, "the expired permission's level must not leak through")
}

func TestDecide_ExpiredPermissionDenied(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "bob.data", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", nil)
	past := time.Now().Add(-time.Hour)
	env.grant(t, user.ID, resource.ID, models.AccessAdmin, &past, true)

	decision, err := env.decisions.Decide(context.Background(), user.ID, resource.ID)
	require.NoError(t, err)

	assert.False(t, decision.Granted, "an expired permission denies even while active")
	assert.Nil(t, decision.Level)
}

func TestDecide_InactivePermissionDenied(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "bob.data", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "platform", nil)
	env.grant(t, user.ID, resource.ID, models.AccessRead, nil, false)

	decision, err := env.decisions.Decide(context.Background(), user.ID, resource.ID)
	require.NoError(t, err)

	assert.False(t, decision.Granted, "an inactive row counts as no permission")
}

func TestDecide_NoPermissionNoGroup(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "bob.data", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "platform", nil)

	decision, err := env.decisions.Decide(context.Background(), user.ID, resource.ID)
	require.NoError(t, err)

	assert.False(t, decision.Granted)
	assert.Nil(t, decision.Level)
}

func TestDecide_UnknownUserIsErrorNotDenial(t *testing.T) {
	env := newTestEnv()
	resource := env.addResource(t, "wiki", models.ResourceCommon, "platform", nil)

	_, err := env.decisions.Decide(context.Background(), uuid.New(), resource.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestHasPermissionLevel_Ordering(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "bob.data", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", nil)
	env.grant(t, user.ID, resource.ID, models.AccessWrite, nil, true)

	hasRead, err := env.decisions.HasPermissionLevel(context.Background(), user.ID, resource.ID, models.AccessRead)
	require.NoError(t, err)
	assert.True(t, hasRead, "WRITE covers READ")

	hasAdmin, err := env.decisions.HasPermissionLevel(context.Background(), user.ID, resource.ID, models.AccessAdmin)
	require.NoError(t, err)
	assert.False(t, hasAdmin, "WRITE does not cover ADMIN")
}

func TestHasPermissionLevel_GroupAccessCountsAsRead(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "alice.platform", models.RoleTeamMember)
	resource := env.addResource(t, "wiki", models.ResourceCommon, "platform", nil)

	hasRead, err := env.decisions.HasPermissionLevel(context.Background(), user.ID, resource.ID, models.AccessRead)
	require.NoError(t, err)
	assert.True(t, hasRead)

	hasWrite, err := env.decisions.HasPermissionLevel(context.Background(), user.ID, resource.ID, models.AccessWrite)
	require.NoError(t, err)
	assert.False(t, hasWrite)
}

func TestUserAccessLevel(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "bob.data", models.RoleTeamMember)
	resource := env.addResource(t, "ci-cluster", models.ResourceManagerControlled, "", nil)

	level, err := env.decisions.UserAccessLevel(context.Background(), user.ID, resource.ID)
	require.NoError(t, err)
	assert.Nil(t, level)

	env.grant(t, user.ID, resource.ID, models.AccessFullAccess, nil, true)
	level, err = env.decisions.UserAccessLevel(context.Background(), user.ID, resource.ID)
	require.NoError(t, err)
	require.NotNil(t, level)
	assert.Equal(t, models.AccessFullAccess, *level)
}
