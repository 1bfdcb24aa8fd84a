package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_MatchesGroupToken(t *testing.T) {
	resolver := NewGroupMembershipResolver()

	assert.True(t, resolver.Matches("alice.platform", "platform"))
	assert.True(t, resolver.Matches("bob.data", "platform,data"))
	assert.True(t, resolver.Matches("Carol.PLATFORM", "Platform"), "matching is case-insensitive")
}

func TestResolver_RequiresDotPrefix(t *testing.T) {
	resolver := NewGroupMembershipResolver()

	assert.False(t, resolver.Matches("aliceplatform", "platform"), "token must follow a dot")
	assert.True(t, resolver.Matches("alice.platform.lead", "platform"))
}

func TestResolver_EmptyGroupList(t *testing.T) {
	resolver := NewGroupMembershipResolver()

	assert.False(t, resolver.Matches("alice.platform", ""))
	assert.False(t, resolver.Matches("alice.platform", "   "))
	assert.False(t, resolver.Matches("alice.platform", " , ,"), "blank tokens are skipped")
}

func TestResolver_NoMatch(t *testing.T) {
	resolver := NewGroupMembershipResolver()

	assert.False(t, resolver.Matches("alice.platform", "data,infra"))
	assert.False(t, resolver.Matches("", "platform"))
}
