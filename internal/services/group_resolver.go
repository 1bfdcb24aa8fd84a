package services

import "strings"

// GroupMembershipResolver decides whether a username belongs to any of the
// groups named in a resource's allowed-groups list. The decision engine only
// depends on this interface, so the matching convention can change without
// touching access decisions.
type GroupMembershipResolver interface {
	Matches(username, allowedGroups string) bool
}

// dotSuffixResolver implements the team naming convention: usernames carry
// their group as a dot-separated suffix ("alice.platform"), so a user belongs
// to group "platform" when the lowercased username contains ".platform".
type dotSuffixResolver struct{}

func NewGroupMembershipResolver() GroupMembershipResolver {
	return dotSuffixResolver{}
}

func (dotSuffixResolver) Matches(username, allowedGroups string) bool {
	if strings.TrimSpace(allowedGroups) == "" {
		return false
	}
	name := strings.ToLower(username)
	for _, token := range strings.Split(allowedGroups, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if strings.Contains(name, "."+strings.ToLower(token)) {
			return true
		}
	}
	return false
}
