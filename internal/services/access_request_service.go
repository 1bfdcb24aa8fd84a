package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"team-access-service/internal/models"
	"team-access-service/internal/repository"

	"github.com/google/uuid"
)

// AccessRequestService runs the request lifecycle: PENDING at submit, then a
// single transition to APPROVED or REJECTED. The decision flips the status
// with a compare-and-swap so two concurrent approvers cannot both win, and an
// approval writes the permission in the same transaction as the status flip.
type AccessRequestService struct {
	requests      repository.AccessRequestRepository
	users         repository.UserRepository
	resources     repository.ResourceRepository
	projects      repository.ProjectRepository
	permissions   repository.PermissionRepository
	notifications *NotificationService
	audit         *AuditService
}

func NewAccessRequestService(
	requests repository.AccessRequestRepository,
	users repository.UserRepository,
	resources repository.ResourceRepository,
	projects repository.ProjectRepository,
	permissions repository.PermissionRepository,
	notifications *NotificationService,
	audit *AuditService,
) *AccessRequestService {
	return &AccessRequestService{
		requests:      requests,
		users:         users,
		resources:     resources,
		projects:      projects,
		permissions:   permissions,
		notifications: notifications,
		audit:         audit,
	}
}

// Submit files a new PENDING request. The resource's project and its manager
// are snapshotted onto the request; later membership changes do not move the
// request to another approver. Duplicate pending requests are allowed.
func (s *AccessRequestService) Submit(ctx context.Context, req *models.SubmitAccessRequest) (*models.AccessRequest, error) {
	if req.UserID == uuid.Nil {
		return nil, newValidationError("user_id", "required")
	}
	if req.ResourceID == uuid.Nil {
		return nil, newValidationError("resource_id", "required")
	}
	if !req.RequestedAccessLevel.Valid() {
		return nil, newValidationError("requested_access_level", "must be one of READ, WRITE, ADMIN, FULL_ACCESS")
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requesting user: %w", err)
	}
	resource, err := s.resources.GetByID(ctx, req.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resource: %w", err)
	}

	request := &models.AccessRequest{
		UserID:               req.UserID,
		ResourceID:           req.ResourceID,
		ProjectID:            resource.ProjectID,
		RequestedAccessLevel: req.RequestedAccessLevel,
		Status:               models.RequestPending,
		Justification:        req.Justification,
		RequestedUntil:       req.RequestedUntil,
	}

	if resource.ProjectID != nil {
		managerID, err := s.resolveProjectManager(ctx, *resource.ProjectID)
		if err != nil {
			return nil, err
		}
		request.ProjectManagerID = managerID
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	if request.ProjectManagerID != nil {
		if err := s.notifications.NotifyRequestReceived(ctx, *request.ProjectManagerID, request, user.FullName, resource.Name); err != nil {
			slog.Error("failed to notify manager about new request",
				"request_id", request.ID, "manager_id", *request.ProjectManagerID, "error", err)
		}
	}
	s.audit.Record(ctx, &req.UserID, &req.ResourceID, models.AuditAccessRequested,
		fmt.Sprintf("requested %s access to resource '%s'", req.RequestedAccessLevel, resource.Name))

	return request, nil
}

// resolveProjectManager returns the first project member holding the
// PROJECT_MANAGER role, or nil when the project has none.
func (s *AccessRequestService) resolveProjectManager(ctx context.Context, projectID uuid.UUID) (*uuid.UUID, error) {
	members, err := s.projects.GetMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project members: %w", err)
	}
	for _, member := range members {
		if member.Role == models.RoleProjectManager {
			id := member.ID
			return &id, nil
		}
	}
	return nil, nil
}

// Approve moves a PENDING request to APPROVED and writes the permission at
// the requested level in the same transaction. A request already decided, by
// this call losing a race or otherwise, yields ErrInvalidStateTransition.
func (s *AccessRequestService) Approve(ctx context.Context, requestID, approverID uuid.UUID, comments string) (*models.AccessRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestPending {
		return nil, fmt.Errorf("request %s is %s: %w", requestID, request.Status, ErrInvalidStateTransition)
	}

	decidedAt := time.Now()
	tx, err := s.requests.BeginTransaction()
	if err != nil {
		return nil, err
	}

	swapped, err := s.requests.UpdateDecisionTx(tx, requestID, models.RequestApproved, comments, approverID, decidedAt)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !swapped {
		tx.Rollback()
		return nil, fmt.Errorf("request %s was decided concurrently: %w", requestID, ErrInvalidStateTransition)
	}

	permission := &models.Permission{
		UserID:      request.UserID,
		ResourceID:  request.ResourceID,
		AccessLevel: request.RequestedAccessLevel,
		GrantedAt:   decidedAt,
		ExpiresAt:   request.RequestedUntil,
		IsActive:    true,
	}
	if err := s.permissions.UpsertTx(tx, permission); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}

	request.Status = models.RequestApproved
	request.ApproverComments = &comments
	request.ApprovedBy = &approverID
	request.DecidedAt = &decidedAt

	s.notifyDecision(ctx, request, true)
	s.audit.Record(ctx, &approverID, &request.ResourceID, models.AuditAccessGranted,
		fmt.Sprintf("approved request %s: granted %s to user %s", request.ID, request.RequestedAccessLevel, request.UserID))

	return request, nil
}

// Reject moves a PENDING request to REJECTED. No permission is written.
func (s *AccessRequestService) Reject(ctx context.Context, requestID, approverID uuid.UUID, comments string) (*models.AccessRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestPending {
		return nil, fmt.Errorf("request %s is %s: %w", requestID, request.Status, ErrInvalidStateTransition)
	}

	decidedAt := time.Now()
	tx, err := s.requests.BeginTransaction()
	if err != nil {
		return nil, err
	}

	swapped, err := s.requests.UpdateDecisionTx(tx, requestID, models.RequestRejected, comments, approverID, decidedAt)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !swapped {
		tx.Rollback()
		return nil, fmt.Errorf("request %s was decided concurrently: %w", requestID, ErrInvalidStateTransition)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rejection: %w", err)
	}

	request.Status = models.RequestRejected
	request.ApproverComments = &comments
	request.ApprovedBy = &approverID
	request.DecidedAt = &decidedAt

	s.notifyDecision(ctx, request, false)
	s.audit.Record(ctx, &approverID, &request.ResourceID, models.AuditPermissionChanged,
		fmt.Sprintf("rejected request %s of user %s", request.ID, request.UserID))

	return request, nil
}

func (s *AccessRequestService) notifyDecision(ctx context.Context, request *models.AccessRequest, approved bool) {
	resourceName := request.ResourceID.String()
	if resource, err := s.resources.GetByID(ctx, request.ResourceID); err == nil {
		resourceName = resource.Name
	}
	if err := s.notifications.NotifyRequestDecision(ctx, request, resourceName, approved); err != nil {
		slog.Error("failed to notify requester about decision",
			"request_id", request.ID, "user_id", request.UserID, "error", err)
	}
}

func (s *AccessRequestService) Get(ctx context.Context, requestID uuid.UUID) (*models.AccessRequest, error) {
	return s.requests.GetByID(ctx, requestID)
}

// Update edits the justification and requested validity of a request. Only
// the requester may edit, and only while the request is still pending.
func (s *AccessRequestService) Update(ctx context.Context, actorID, requestID uuid.UUID, req *models.UpdateAccessRequest) (*models.AccessRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.UserID != actorID {
		return nil, fmt.Errorf("user %s does not own request %s: %w", actorID, requestID, ErrForbidden)
	}
	if request.Status != models.RequestPending {
		return nil, fmt.Errorf("request %s is %s: %w", requestID, request.Status, ErrInvalidStateTransition)
	}

	if req.Justification != nil {
		request.Justification = *req.Justification
	}
	if req.RequestedUntil != nil {
		request.RequestedUntil = req.RequestedUntil
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Delete removes a request outright. Administrative cleanup only.
func (s *AccessRequestService) Delete(ctx context.Context, requestID uuid.UUID) error {
	return s.requests.Delete(ctx, requestID)
}

func (s *AccessRequestService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AccessRequest, error) {
	return s.requests.GetByUserID(ctx, userID)
}

func (s *AccessRequestService) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]models.AccessRequest, error) {
	return s.requests.GetByResourceID(ctx, resourceID)
}

func (s *AccessRequestService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.AccessRequest, error) {
	return s.requests.GetByProjectID(ctx, projectID)
}

func (s *AccessRequestService) ListByManager(ctx context.Context, managerID uuid.UUID) ([]models.AccessRequest, error) {
	return s.requests.GetByManagerID(ctx, managerID)
}

func (s *AccessRequestService) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.AccessRequest, error) {
	return s.requests.GetByStatus(ctx, status)
}

func (s *AccessRequestService) ListPending(ctx context.Context) ([]models.AccessRequest, error) {
	return s.requests.GetPending(ctx)
}

func (s *AccessRequestService) ListPendingForManager(ctx context.Context, managerID uuid.UUID) ([]models.AccessRequest, error) {
	return s.requests.GetPendingForManager(ctx, managerID)
}

func (s *AccessRequestService) ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]models.AccessRequest, error) {
	return s.requests.GetPendingForUser(ctx, userID)
}

func (s *AccessRequestService) ListPendingForProject(ctx context.Context, projectID uuid.UUID) ([]models.AccessRequest, error) {
	return s.requests.GetPendingForProject(ctx, projectID)
}
