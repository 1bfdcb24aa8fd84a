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

// ---- notifications ----

type notificationStore struct{ s *Store }

func (r *notificationStore) Create(_ context.Context, notification *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	r.s.notifications[notification.ID] = *notification
	return nil
}

func (r *notificationStore) collect(filter func(models.Notification) bool) []models.Notification {
	var notifications []models.Notification
	for _, notification := range r.s.notifications {
		if filter(notification) {
			notifications = append(notifications, notification)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications
}

func (r *notificationStore) GetByUserID(_ context.Context, userID uuid.UUID) ([]models.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(n models.Notification) bool { return n.UserID == userID }), nil
}

func (r *notificationStore) GetUnreadByUserID(_ context.Context, userID uuid.UUID) ([]models.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(n models.Notification) bool { return n.UserID == userID && !n.IsRead }), nil
}

func (r *notificationStore) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count int64
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notificationStore) MarkRead(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	notification, ok := r.s.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s: %w", id, repository.ErrNotFound)
	}
	notification.IsRead = true
	r.s.notifications[id] = notification
	return nil
}

func (r *notificationStore) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			r.s.notifications[id] = n
		}
	}
	return nil
}

// ---- audit logs ----

type auditStore struct{ s *Store }

func (r *auditStore) Create(_ context.Context, entry *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.s.audits = append(r.s.audits, *entry)
	return nil
}

func (r *auditStore) collect(filter func(models.AuditLog) bool) []models.AuditLog {
	var logs []models.AuditLog
	for _, entry := range r.s.audits {
		if filter(entry) {
			logs = append(logs, entry)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })
	return logs
}

func (r *auditStore) GetByUserID(_ context.Context, userID uuid.UUID) ([]models.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(e models.AuditLog) bool {
		return e.UserID != nil && *e.UserID == userID
	}), nil
}

func (r *auditStore) GetByResourceID(_ context.Context, resourceID uuid.UUID) ([]models.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(e models.AuditLog) bool {
		return e.ResourceID != nil && *e.ResourceID == resourceID
	}), nil
}

func (r *auditStore) GetByAction(_ context.Context, action models.AuditAction) ([]models.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(e models.AuditLog) bool { return e.Action == action }), nil
}

func (r *auditStore) GetAll(_ context.Context) ([]models.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(models.AuditLog) bool { return true }), nil
}
