package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"full_name" db:"full_name"`
	Role      UserRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Project struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type ProjectMember struct {
	ProjectID uuid.UUID `json:"project_id" db:"project_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
}

type Resource struct {
	ID                uuid.UUID          `json:"id" db:"id"`
	Name              string             `json:"name" db:"name"`
	Description       string             `json:"description" db:"description"`
	AccessType        ResourceAccessType `json:"access_type" db:"access_type"`
	AllowedUserGroups string             `json:"allowed_user_groups" db:"allowed_user_groups"`
	ProjectID         *uuid.UUID         `json:"project_id" db:"project_id"`
	IsGlobal          bool               `json:"is_global" db:"is_global"`
	CreatedBy         string             `json:"created_by" db:"created_by"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
}

// Permission is the explicit grant for a (user, resource) pair. At most one
// row exists per pair; re-granting updates the existing row.
type Permission struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	UserID      uuid.UUID   `json:"user_id" db:"user_id"`
	ResourceID  uuid.UUID   `json:"resource_id" db:"resource_id"`
	AccessLevel AccessLevel `json:"access_level" db:"access_level"`
	GrantedAt   time.Time   `json:"granted_at" db:"granted_at"`
	ExpiresAt   *time.Time  `json:"expires_at" db:"expires_at"`
	IsActive    bool        `json:"is_active" db:"is_active"`
}

// Effective reports whether the grant is live at the given instant: active
// and either permanent or not yet expired.
func (p *Permission) Effective(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	return p.ExpiresAt == nil || p.ExpiresAt.After(now)
}

// AccessRequest snapshots the resource's project and its manager at creation
// time; neither is re-resolved if project membership changes later.
type AccessRequest struct {
	ID                   uuid.UUID     `json:"id" db:"id"`
	UserID               uuid.UUID     `json:"user_id" db:"user_id"`
	ResourceID           uuid.UUID     `json:"resource_id" db:"resource_id"`
	ProjectID            *uuid.UUID    `json:"project_id" db:"project_id"`
	ProjectManagerID     *uuid.UUID    `json:"project_manager_id" db:"project_manager_id"`
	RequestedAccessLevel AccessLevel   `json:"requested_access_level" db:"requested_access_level"`
	Status               RequestStatus `json:"status" db:"status"`
	Justification        string        `json:"justification" db:"justification"`
	ApproverComments     *string       `json:"approver_comments" db:"approver_comments"`
	ApprovedBy           *uuid.UUID    `json:"approved_by" db:"approved_by"`
	RequestedAt          time.Time     `json:"requested_at" db:"requested_at"`
	DecidedAt            *time.Time    `json:"decided_at" db:"decided_at"`
	RequestedUntil       *time.Time    `json:"requested_until" db:"requested_until"`
}

type Notification struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	UserID           uuid.UUID        `json:"user_id" db:"user_id"`
	Title            string           `json:"title" db:"title"`
	Message          string           `json:"message" db:"message"`
	Type             NotificationType `json:"type" db:"type"`
	RelatedRequestID *uuid.UUID       `json:"related_request_id" db:"related_request_id"`
	IsRead           bool             `json:"is_read" db:"is_read"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

type AuditLog struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	UserID     *uuid.UUID  `json:"user_id" db:"user_id"`
	ResourceID *uuid.UUID  `json:"resource_id" db:"resource_id"`
	Action     AuditAction `json:"action" db:"action"`
	Details    string      `json:"details" db:"details"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}
