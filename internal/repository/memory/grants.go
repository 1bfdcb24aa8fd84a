package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"team-access-service/internal/models"
	"team-access-service/internal/repository"

	"github.com/google/uuid"
)

// ---- permissions ----

type permissionStore struct{ s *Store }

func (r *permissionStore) upsertLocked(permission *models.Permission) func() {
	if permission.ID == uuid.Nil {
		permission.ID = uuid.New()
	}
	if permission.GrantedAt.IsZero() {
		permission.GrantedAt = time.Now()
	}

	key := pairKey{userID: permission.UserID, resourceID: permission.ResourceID}
	if existingID, ok := r.s.permByPair[key]; ok {
		prev := r.s.permissions[existingID]
		updated := prev
		updated.AccessLevel = permission.AccessLevel
		updated.GrantedAt = permission.GrantedAt
		updated.ExpiresAt = permission.ExpiresAt
		updated.IsActive = permission.IsActive
		r.s.permissions[existingID] = updated
		*permission = updated
		return func() { r.s.permissions[existingID] = prev }
	}

	r.s.permissions[permission.ID] = *permission
	r.s.permByPair[key] = permission.ID
	id := permission.ID
	return func() {
		delete(r.s.permissions, id)
		delete(r.s.permByPair, key)
	}
}

func (r *permissionStore) Upsert(_ context.Context, permission *models.Permission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.upsertLocked(permission)
	return nil
}

func (r *permissionStore) UpsertTx(tx repository.Tx, permission *models.Permission) error {
	mt, err := memTxOf(tx)
	if err != nil {
		return err
	}
	mt.undo = append(mt.undo, r.upsertLocked(permission))
	return nil
}

func (r *permissionStore) GetByID(_ context.Context, id uuid.UUID) (*models.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	permission, ok := r.s.permissions[id]
	if !ok {
		return nil, fmt.Errorf("permission %s: %w", id, repository.ErrNotFound)
	}
	return &permission, nil
}

func (r *permissionStore) GetByPair(_ context.Context, userID, resourceID uuid.UUID) (*models.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.permByPair[pairKey{userID: userID, resourceID: resourceID}]
	if !ok {
		return nil, fmt.Errorf("permission for user %s on resource %s: %w", userID, resourceID, repository.ErrNotFound)
	}
	permission := r.s.permissions[id]
	return &permission, nil
}

func (r *permissionStore) collect(filter func(models.Permission) bool) []models.Permission {
	var permissions []models.Permission
	for _, permission := range r.s.permissions {
		if filter(permission) {
			permissions = append(permissions, permission)
		}
	}
	sort.Slice(permissions, func(i, j int) bool {
		return permissions[i].GrantedAt.After(permissions[j].GrantedAt)
	})
	return permissions
}

func (r *permissionStore) GetByUserID(_ context.Context, userID uuid.UUID) ([]models.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(p models.Permission) bool { return p.UserID == userID }), nil
}

func (r *permissionStore) GetByResourceID(_ context.Context, resourceID uuid.UUID) ([]models.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(p models.Permission) bool { return p.ResourceID == resourceID }), nil
}

func (r *permissionStore) Update(_ context.Context, permission *models.Permission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.permissions[permission.ID]
	if !ok {
		return fmt.Errorf("permission %s: %w", permission.ID, repository.ErrNotFound)
	}
	existing.AccessLevel = permission.AccessLevel
	existing.ExpiresAt = permission.ExpiresAt
	existing.IsActive = permission.IsActive
	r.s.permissions[permission.ID] = existing
	*permission = existing
	return nil
}

func (r *permissionStore) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	permission, ok := r.s.permissions[id]
	if !ok {
		return fmt.Errorf("permission %s: %w", id, repository.ErrNotFound)
	}
	permission.IsActive = false
	r.s.permissions[id] = permission
	return nil
}

func (r *permissionStore) GetActive(_ context.Context) ([]models.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(p models.Permission) bool { return p.IsActive }), nil
}

func (r *permissionStore) GetExpired(_ context.Context, before time.Time) ([]models.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	permissions := r.collect(func(p models.Permission) bool {
		return p.ExpiresAt != nil && p.ExpiresAt.Before(before)
	})
	sort.Slice(permissions, func(i, j int) bool {
		return permissions[i].ExpiresAt.Before(*permissions[j].ExpiresAt)
	})
	return permissions, nil
}

// ---- access requests ----

type requestStore struct{ s *Store }

func (r *requestStore) Create(_ context.Context, request *models.AccessRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	if request.RequestedAt.IsZero() {
		request.RequestedAt = time.Now()
	}
	r.s.requests[request.ID] = *request
	return nil
}

func (r *requestStore) GetByID(_ context.Context, id uuid.UUID) (*models.AccessRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	request, ok := r.s.requests[id]
	if !ok {
		return nil, fmt.Errorf("access request %s: %w", id, repository.ErrNotFound)
	}
	return &request, nil
}

func (r *requestStore) Update(_ context.Context, request *models.AccessRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.requests[request.ID]
	if !ok {
		return fmt.Errorf("access request %s: %w", request.ID, repository.ErrNotFound)
	}
	existing.Justification = request.Justification
	existing.RequestedUntil = request.RequestedUntil
	r.s.requests[request.ID] = existing
	*request = existing
	return nil
}

func (r *requestStore) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[id]; !ok {
		return fmt.Errorf("access request %s: %w", id, repository.ErrNotFound)
	}
	delete(r.s.requests, id)
	return nil
}

func (r *requestStore) BeginTransaction() (repository.Tx, error) {
	r.s.mu.Lock()
	return &memTx{store: r.s}, nil
}

func (r *requestStore) UpdateDecisionTx(tx repository.Tx, id uuid.UUID, status models.RequestStatus, comments string, approverID uuid.UUID, decidedAt time.Time) (bool, error) {
	mt, err := memTxOf(tx)
	if err != nil {
		return false, err
	}

	prev, ok := r.s.requests[id]
	if !ok || prev.Status != models.RequestPending {
		return false, nil
	}

	updated := prev
	updated.Status = status
	updated.ApproverComments = &comments
	updated.ApprovedBy = &approverID
	updated.DecidedAt = &decidedAt
	r.s.requests[id] = updated
	mt.undo = append(mt.undo, func() { r.s.requests[id] = prev })
	return true, nil
}

func (r *requestStore) collect(filter func(models.AccessRequest) bool, oldestFirst bool) []models.AccessRequest {
	var requests []models.AccessRequest
	for _, request := range r.s.requests {
		if filter(request) {
			requests = append(requests, request)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		if oldestFirst {
			return requests[i].RequestedAt.Before(requests[j].RequestedAt)
		}
		return requests[i].RequestedAt.After(requests[j].RequestedAt)
	})
	return requests
}

func (r *requestStore) GetByUserID(_ context.Context, userID uuid.UUID) ([]models.AccessRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(req models.AccessRequest) bool { return req.UserID == userID }, false), nil
}

func (r *requestStore) GetByResourceID(_ context.Context, resourceID uuid.UUID) ([]models.AccessRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(req models.AccessRequest) bool { return req.ResourceID == resourceID }, false), nil
}

func (r *requestStore) GetByProjectID(_ context.Context, projectID uuid.UUID) ([]models.AccessRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(req models.AccessRequest) bool {
		return req.ProjectID != nil && *req.ProjectID == projectID
	}, false), nil
}

func (r *requestStore) GetByManagerID(_ context.Context, managerID uuid.UUID) ([]models.AccessRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(req models.AccessRequest) bool {
		return req.ProjectManagerID != nil && *req.ProjectManagerID == managerID
	}, false), nil
}

func (r *requestStore) GetByStatus(_ context.Context, status models.RequestStatus) ([]models.AccessRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(req models.AccessRequest) bool { return req.Status == status }, false), nil
}

func (r *requestStore) GetPending(_ context.Context) ([]models.AccessRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(req models.AccessRequest) bool { return req.Status == models.RequestPending }, true), nil
}

func (r *requestStore) GetPendingForManager(_ context.Context, managerID uuid.UUID) ([]models.AccessRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(req models.AccessRequest) bool {
		return req.Status == models.RequestPending && req.ProjectManagerID != nil && *req.ProjectManagerID == managerID
	}, true), nil
}

func (r *requestStore) GetPendingForUser(_ context.Context, userID uuid.UUID) ([]models.AccessRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(req models.AccessRequest) bool {
		return req.Status == models.RequestPending && req.UserID == userID
	}, true), nil
}

func (r *requestStore) GetPendingForProject(_ context.Context, projectID uuid.UUID) ([]models.AccessRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(req models.AccessRequest) bool {
		return req.Status == models.RequestPending && req.ProjectID != nil && *req.ProjectID == projectID
	}, true), nil
}
