package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"team-access-service/internal/event"
	"team-access-service/internal/models"
	"team-access-service/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const unreadCountKeyPrefix = "access:unread_count:"
const unreadCountTTL = 5 * time.Minute

// PushPublisher is the outbound push channel. Satisfied by
// event.NotificationPublisher; nil disables pushes.
type PushPublisher interface {
	PublishNotification(ctx context.Context, e event.NotificationEventPushModel) error
}

// NotificationService stores user notifications and mirrors them to the push
// queue. The unread count is cached in Redis; cache misses and cache failures
// fall back to a database count.
type NotificationService struct {
	notifications repository.NotificationRepository
	cache         *redis.Client
	publisher     PushPublisher
}

func NewNotificationService(notifications repository.NotificationRepository, cache *redis.Client, publisher PushPublisher) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		cache:         cache,
		publisher:     publisher,
	}
}

func (s *NotificationService) create(ctx context.Context, notification *models.Notification) error {
	if err := s.notifications.Create(ctx, notification); err != nil {
		return err
	}
	s.invalidateUnreadCount(ctx, notification.UserID)
	s.push(ctx, notification)
	return nil
}

func (s *NotificationService) push(ctx context.Context, notification *models.Notification) {
	if s.publisher == nil {
		return
	}
	e := event.NotificationEventPushModel{
		LstUserIds: []string{notification.UserID.String()},
		Title:      notification.Title,
		Body:       notification.Message,
		Data: map[string]any{
			"type":            string(notification.Type),
			"notification_id": notification.ID.String(),
		},
	}
	if notification.RelatedRequestID != nil {
		e.Data["request_id"] = notification.RelatedRequestID.String()
	}
	if err := s.publisher.PublishNotification(ctx, e); err != nil {
		slog.Error("failed to publish push notification", "user_id", notification.UserID, "error", err)
	}
}

// NotifyRequestReceived tells a project manager that a new access request is
// waiting for them.
func (s *NotificationService) NotifyRequestReceived(ctx context.Context, managerID uuid.UUID, request *models.AccessRequest, requesterName, resourceName string) error {
	notification := &models.Notification{
		UserID:           managerID,
		Title:            "New Access Request",
		Message:          fmt.Sprintf("%s has requested %s access to resource '%s'", requesterName, request.RequestedAccessLevel, resourceName),
		Type:             models.NotificationRequestReceived,
		RelatedRequestID: &request.ID,
	}
	return s.create(ctx, notification)
}

// NotifyRequestDecision tells the requester how their request was decided.
func (s *NotificationService) NotifyRequestDecision(ctx context.Context, request *models.AccessRequest, resourceName string, approved bool) error {
	notification := &models.Notification{
		UserID:           request.UserID,
		RelatedRequestID: &request.ID,
	}
	if approved {
		notification.Title = "Access Request Approved"
		notification.Message = fmt.Sprintf("Your request for %s access to resource '%s' has been approved", request.RequestedAccessLevel, resourceName)
		notification.Type = models.NotificationRequestApproved
	} else {
		notification.Title = "Access Request Rejected"
		notification.Message = fmt.Sprintf("Your request for %s access to resource '%s' has been rejected", request.RequestedAccessLevel, resourceName)
		notification.Type = models.NotificationRequestRejected
	}
	if request.ApproverComments != nil && *request.ApproverComments != "" {
		notification.Message = fmt.Sprintf("%s: %s", notification.Message, *request.ApproverComments)
	}
	return s.create(ctx, notification)
}

func (s *NotificationService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return s.notifications.GetByUserID(ctx, userID)
}

func (s *NotificationService) ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return s.notifications.GetUnreadByUserID(ctx, userID)
}

// UnreadCount serves from the Redis cache when possible and repopulates it
// from the database on a miss.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	key := unreadCountKeyPrefix + userID.String()
	if s.cache != nil {
		count, err := s.cache.Get(ctx, key).Int64()
		if err == nil {
			return count, nil
		}
		if err != redis.Nil {
			slog.Warn("unread count cache read failed", "user_id", userID, "error", err)
		}
	}

	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, unreadCountTTL).Err(); err != nil {
			slog.Warn("unread count cache write failed", "user_id", userID, "error", err)
		}
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := s.notifications.MarkRead(ctx, notificationID); err != nil {
		return err
	}
	s.invalidateUnreadCount(ctx, userID)
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	s.invalidateUnreadCount(ctx, userID)
	return nil
}

func (s *NotificationService) invalidateUnreadCount(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, unreadCountKeyPrefix+userID.String()).Err(); err != nil {
		slog.Warn("unread count cache invalidation failed", "user_id", userID, "error", err)
	}
}
