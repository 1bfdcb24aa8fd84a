package models

type AccessLevel string

const (
	AccessRead       AccessLevel = "READ"
	AccessWrite      AccessLevel = "WRITE"
	AccessAdmin      AccessLevel = "ADMIN"
	AccessFullAccess AccessLevel = "FULL_ACCESS"
)

// Rank orders access levels: READ < WRITE < ADMIN < FULL_ACCESS.
// Unknown levels rank below READ.
func (l AccessLevel) Rank() int {
	switch l {
	case AccessRead:
		return 1
	case AccessWrite:
		return 2
	case AccessAdmin:
		return 3
	case AccessFullAccess:
		return 4
	default:
		return 0
	}
}

func (l AccessLevel) Valid() bool {
	return l.Rank() > 0
}

// Covers reports whether level l satisfies the required level.
func (l AccessLevel) Covers(required AccessLevel) bool {
	return l.Rank() >= required.Rank()
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
	// RequestExpired is a reserved terminal state for a future time-based
	// sweep; no transition currently produces it.
	RequestExpired RequestStatus = "EXPIRED"
)

type ResourceAccessType string

const (
	ResourceCommon            ResourceAccessType = "COMMON"
	ResourceManagerControlled ResourceAccessType = "MANAGER_CONTROLLED"
)

type UserRole string

const (
	RoleAdmin          UserRole = "ADMIN"
	RoleProjectManager UserRole = "PROJECT_MANAGER"
	RoleTeamLead       UserRole = "TEAMLEAD"
	RoleTeamMember     UserRole = "TEAM_MEMBER"
	RoleViewer         UserRole = "VIEWER"
)

// Elevated roles receive ADMIN instead of READ when COMMON resources
// materialize their grants.
func (r UserRole) IsElevated() bool {
	return r == RoleAdmin || r == RoleProjectManager || r == RoleTeamLead
}

type NotificationType string

const (
	NotificationRequestReceived NotificationType = "ACCESS_REQUEST_RECEIVED"
	NotificationRequestApproved NotificationType = "ACCESS_REQUEST_APPROVED"
	NotificationRequestRejected NotificationType = "ACCESS_REQUEST_REJECTED"
)

type AuditAction string

const (
	AuditAccessGranted     AuditAction = "ACCESS_GRANTED"
	AuditAccessRevoked     AuditAction = "ACCESS_REVOKED"
	AuditAccessRequested   AuditAction = "ACCESS_REQUESTED"
	AuditResourceCreated   AuditAction = "RESOURCE_CREATED"
	AuditResourceUpdated   AuditAction = "RESOURCE_UPDATED"
	AuditResourceDeleted   AuditAction = "RESOURCE_DELETED"
	AuditPermissionChanged AuditAction = "PERMISSION_CHANGED"
)
