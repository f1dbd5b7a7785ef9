package services

import (
	"context"
	"encoding/json"

	"github.com/microcosm-cc/bluemonday"

	"community-service/internal/apperrors"
	"community-service/internal/deeplink"
	"community-service/internal/logger"
	"community-service/internal/metrics"
	"community-service/internal/models"
	"community-service/internal/rabbitmq"
	"community-service/internal/repositories"
)

const (
	NotificationCreatedKey = "notification.created"

	defaultInboxLimit = 50
	maxInboxLimit     = 100
)

// Broadcaster pushes payloads to a user's live connections.
type Broadcaster interface {
	SendToUser(userID string, payload any)
}

type NotificationService struct {
	repo       repositories.NotificationRepository
	publisher  rabbitmq.Publisher
	hub        Broadcaster
	policy     *bluemonday.Policy
	scheme     string
	tombstones *Tombstones
}

func NewNotificationService(repo repositories.NotificationRepository, publisher rabbitmq.Publisher, hub Broadcaster, scheme string) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		hub:       hub,
		policy:    bluemonday.StrictPolicy(),
		scheme:    scheme,
	}
}

// WithTombstones silences inbox lookups that race the deletion of the reader.
func (s *NotificationService) WithTombstones(t *Tombstones) *NotificationService {
	s.tombstones = t
	return s
}

// Notify persists the notification and then fans it out to the broker and live sockets.
// Fan-out failures are logged and do not fail the call.
func (s *NotificationService) Notify(ctx context.Context, userID string, kind models.NotificationType, title, body string, data map[string]any) error {
	if !kind.Valid() {
		metrics.IncNotification(string(kind), metrics.StatusFailed)
		return apperrors.Validation("unknown notification type")
	}
	title = sanitize(s.policy, title)
	if title == "" {
		metrics.IncNotification(string(kind), metrics.StatusFailed)
		return apperrors.Validation("notification title is required")
	}

	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindValidation, apperrors.CodeValidation, "notification data is not serialisable")
	}

	n := &models.Notification{
		UserID: userID,
		Type:   kind,
		Title:  title,
		Body:   sanitize(s.policy, body),
		Data:   raw,
	}
	if link := s.actionURL(data); link != "" {
		n.ActionURL = &link
	}

	if err := s.repo.Create(ctx, n); err != nil {
		metrics.IncNotification(string(kind), metrics.StatusFailed)
		return err
	}
	metrics.IncNotification(string(kind), metrics.StatusSuccess)

	s.fanOut(ctx, n)
	return nil
}

func (s *NotificationService) fanOut(ctx context.Context, n *models.Notification) {
	if s.hub != nil {
		s.hub.SendToUser(n.UserID, map[string]any{"type": "notification", "notification": n})
	}
	if s.publisher == nil {
		return
	}
	err := apperrors.Retry(ctx, "publish "+NotificationCreatedKey, func() error {
		return s.publisher.Publish(ctx, NotificationCreatedKey, n)
	})
	if err != nil {
		logger.Warn("failed to publish notification", "notification_id", n.ID, "error", err)
	}
}

func (s *NotificationService) actionURL(data map[string]any) string {
	if s.scheme == "" {
		return ""
	}
	if id, ok := data["group_id"].(string); ok && id != "" {
		return deeplink.Build(s.scheme, deeplink.TypeGroup, id)
	}
	if id, ok := data["referral_id"].(string); ok && id != "" {
		return deeplink.Build(s.scheme, deeplink.TypeReferral, id)
	}
	if id, ok := data["event_id"].(string); ok && id != "" {
		return deeplink.Build(s.scheme, deeplink.TypeEvent, id)
	}
	return deeplink.Build(s.scheme, deeplink.TypeNotifications, "")
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	if limit > maxInboxLimit {
		limit = maxInboxLimit
	}
	items, err := s.repo.ListForUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	err := notFoundAs(s.repo.MarkRead(ctx, id, userID), "notification")
	return s.tombstones.suppress(err, "notifications", userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
