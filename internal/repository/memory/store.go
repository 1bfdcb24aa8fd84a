// Package memory provides in-memory implementations of the repository
// interfaces. They back the service tests and serve as the reference
// behavior for the Postgres implementations, including the uniqueness of
// (user, resource) permission pairs and the compare-and-swap decision update.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"team-access-service/internal/models"
	"team-access-service/internal/repository"

	"github.com/google/uuid"
)

type pairKey struct {
	userID     uuid.UUID
	resourceID uuid.UUID
}

// Store holds all tables behind a single mutex. Repository accessors share
// the store, so a transaction spanning requests and permissions sees one
// consistent world.
type Store struct {
	mu sync.RWMutex

	users         map[uuid.UUID]models.User
	projects      map[uuid.UUID]models.Project
	members       map[uuid.UUID][]models.ProjectMember
	resources     map[uuid.UUID]models.Resource
	permissions   map[uuid.UUID]models.Permission
	permByPair    map[pairKey]uuid.UUID
	requests      map[uuid.UUID]models.AccessRequest
	notifications map[uuid.UUID]models.Notification
	audits        []models.AuditLog
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]models.User),
		projects:      make(map[uuid.UUID]models.Project),
		members:       make(map[uuid.UUID][]models.ProjectMember),
		resources:     make(map[uuid.UUID]models.Resource),
		permissions:   make(map[uuid.UUID]models.Permission),
		permByPair:    make(map[pairKey]uuid.UUID),
		requests:      make(map[uuid.UUID]models.AccessRequest),
		notifications: make(map[uuid.UUID]models.Notification),
	}
}

func (s *Store) Users() repository.UserRepository                   { return &userStore{s} }
func (s *Store) Projects() repository.ProjectRepository             { return &projectStore{s} }
func (s *Store) Resources() repository.ResourceRepository           { return &resourceStore{s} }
func (s *Store) Permissions() repository.PermissionRepository       { return &permissionStore{s} }
func (s *Store) AccessRequests() repository.AccessRequestRepository { return &requestStore{s} }
func (s *Store) Notifications() repository.NotificationRepository   { return &notificationStore{s} }
func (s *Store) AuditLogs() repository.AuditLogRepository           { return &auditStore{s} }

// memTx holds the store lock for the duration of the transaction and keeps
// undo closures so Rollback restores the pre-transaction state.
type memTx struct {
	store *Store
	undo  []func()
	done  bool
}

func (t *memTx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

func memTxOf(tx repository.Tx) (*memTx, error) {
	mt, ok := tx.(*memTx)
	if !ok {
		return nil, fmt.Errorf("transaction does not belong to this store")
	}
	if mt.done {
		return nil, fmt.Errorf("transaction already finished")
	}
	return mt, nil
}

// ---- users ----

type userStore struct{ s *Store }

func (r *userStore) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	return &user, nil
}

func (r *userStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, repository.ErrNotFound)
}

func (r *userStore) GetAll(_ context.Context) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]models.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

// ---- projects ----

type projectStore struct{ s *Store }

func (r *projectStore) Create(_ context.Context, project *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}
	r.s.projects[project.ID] = *project
	return nil
}

func (r *projectStore) GetByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	project, ok := r.s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, repository.ErrNotFound)
	}
	return &project, nil
}

func (r *projectStore) AddMember(_ context.Context, projectID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.members[projectID] {
		if m.UserID == userID {
			return nil
		}
	}
	r.s.members[projectID] = append(r.s.members[projectID], models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	})
	return nil
}

func (r *projectStore) RemoveMember(_ context.Context, projectID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	members := r.s.members[projectID]
	for i, m := range members {
		if m.UserID == userID {
			r.s.members[projectID] = append(members[:i:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *projectStore) GetMembers(_ context.Context, projectID uuid.UUID) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var users []models.User
	for _, m := range r.s.members[projectID] {
		if user, ok := r.s.users[m.UserID]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

// ---- resources ----

type resourceStore struct{ s *Store }

func (r *resourceStore) Create(_ context.Context, resource *models.Resource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if resource.ID == uuid.Nil {
		resource.ID = uuid.New()
	}
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = time.Now()
	}
	r.s.resources[resource.ID] = *resource
	return nil
}

func (r *resourceStore) GetByID(_ context.Context, id uuid.UUID) (*models.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	resource, ok := r.s.resources[id]
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", id, repository.ErrNotFound)
	}
	return &resource, nil
}

func (r *resourceStore) Update(_ context.Context, resource *models.Resource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.resources[resource.ID]; !ok {
		return fmt.Errorf("resource %s: %w", resource.ID, repository.ErrNotFound)
	}
	r.s.resources[resource.ID] = *resource
	return nil
}

func (r *resourceStore) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.resources[id]; !ok {
		return fmt.Errorf("resource %s: %w", id, repository.ErrNotFound)
	}
	delete(r.s.resources, id)
	return nil
}

func (r *resourceStore) collect(filter func(models.Resource) bool) []models.Resource {
	var resources []models.Resource
	for _, resource := range r.s.resources {
		if filter(resource) {
			resources = append(resources, resource)
		}
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].CreatedAt.After(resources[j].CreatedAt) })
	return resources
}

func (r *resourceStore) GetAll(_ context.Context) ([]models.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(models.Resource) bool { return true }), nil
}

func (r *resourceStore) GetByProjectID(_ context.Context, projectID uuid.UUID) ([]models.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(res models.Resource) bool {
		return res.ProjectID != nil && *res.ProjectID == projectID
	}), nil
}

func (r *resourceStore) GetGlobal(_ context.Context) ([]models.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(res models.Resource) bool { return res.IsGlobal }), nil
}
