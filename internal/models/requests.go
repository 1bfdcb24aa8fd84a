package models

import (
	"time"

	"github.com/google/uuid"
)

type SubmitAccessRequest struct {
	UserID               uuid.UUID   `json:"user_id"`
	ResourceID           uuid.UUID   `json:"resource_id"`
	RequestedAccessLevel AccessLevel `json:"requested_access_level"`
	Justification        string      `json:"justification"`
	RequestedUntil       *time.Time  `json:"requested_until,omitempty"`
}

type DecideAccessRequest struct {
	Comments string `json:"comments"`
}

type UpdateAccessRequest struct {
	Justification  *string    `json:"justification,omitempty"`
	RequestedUntil *time.Time `json:"requested_until,omitempty"`
}

type CreateResourceRequest struct {
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	AccessType        ResourceAccessType `json:"access_type"`
	AllowedUserGroups string             `json:"allowed_user_groups"`
	ProjectID         *uuid.UUID         `json:"project_id,omitempty"`
	IsGlobal          bool               `json:"is_global"`
}

type UpdateResourceAccessRequest struct {
	AccessType        *ResourceAccessType `json:"access_type,omitempty"`
	AllowedUserGroups string              `json:"allowed_user_groups"`
}

type GrantPermissionRequest struct {
	UserID      uuid.UUID   `json:"user_id"`
	ResourceID  uuid.UUID   `json:"resource_id"`
	AccessLevel AccessLevel `json:"access_level"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
}

type ExtendPermissionRequest struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// Decision is the outcome of an access check. Level is nil when access is
// implicit (group match without a stored permission).
type Decision struct {
	Granted bool         `json:"granted"`
	Level   *AccessLevel `json:"level,omitempty"`
}
