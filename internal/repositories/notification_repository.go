package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"community-service/internal/models"
)

const notificationColumns = `id, user_id, type, title, body, data, read, action_url, expires_at, created_at`

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if len(n.Data) == 0 {
		n.Data = []byte("{}")
	}
	return r.db.QueryRowxContext(ctx, `
INSERT INTO notifications (user_id, type, title, body, data, action_url, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, read, created_at
`, n.UserID, n.Type, n.Title, n.Body, n.Data, n.ActionURL, n.ExpiresAt).Scan(&n.ID, &n.Read, &n.CreatedAt)
}

// ListForUser skips expired notifications.
func (r *notificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	var rows []models.Notification
	err := r.db.SelectContext(ctx, &rows, `
SELECT `+notificationColumns+`
FROM notifications
WHERE user_id=$1
  AND ($2 = FALSE OR read = FALSE)
  AND (expires_at IS NULL OR expires_at > NOW())
ORDER BY created_at DESC
LIMIT $3
`, userID, unreadOnly, limit)
	return rows, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
SELECT COUNT(*) FROM notifications
WHERE user_id=$1 AND read=FALSE AND (expires_at IS NULL OR expires_at > NOW())
`, userID)
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read=TRUE WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	return expectRows(res)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read=TRUE WHERE user_id=$1 AND read=FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
