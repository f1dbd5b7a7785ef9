package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"community-service/internal/models"
)

const friendshipColumns = `id, user_id, friend_id, status, created_at, updated_at`

// FriendRepository stores directed friendship edges. FindBetween returns (nil, nil) when the
// two users have no edge in either direction.
type FriendRepository interface {
	FindBetween(ctx context.Context, userID, otherID string) (*models.Friendship, error)
	Create(ctx context.Context, userID, friendID string, status models.FriendshipStatus) (*models.Friendship, error)
	UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus) error
	Reopen(ctx context.Context, id, userID, friendID string) (*models.Friendship, error)
	Delete(ctx context.Context, id string) error
	Replace(ctx context.Context, id, userID, friendID string, status models.FriendshipStatus) (*models.Friendship, error)
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
	ListIncoming(ctx context.Context, userID string) ([]models.Friendship, error)
}

type friendRepository struct {
	db *sqlx.DB
}

func NewFriendRepository(db *sqlx.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) FindBetween(ctx context.Context, userID, otherID string) (*models.Friendship, error) {
	var edge models.Friendship
	err := r.db.GetContext(ctx, &edge, `
SELECT `+friendshipColumns+`
FROM friendships
WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)
ORDER BY updated_at DESC
LIMIT 1
`, userID, otherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &edge, nil
}

func (r *friendRepository) Create(ctx context.Context, userID, friendID string, status models.FriendshipStatus) (*models.Friendship, error) {
	var edge models.Friendship
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO friendships (user_id, friend_id, status)
VALUES ($1, $2, $3)
RETURNING `+friendshipColumns+`
`, userID, friendID, status).StructScan(&edge)
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func (r *friendRepository) UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE friendships SET status=$2, updated_at=NOW()
WHERE id=$1
`, id, status)
	if err != nil {
		return err
	}
	return expectRows(res)
}

// Reopen turns an existing edge into a fresh pending request from userID to friendID.
func (r *friendRepository) Reopen(ctx context.Context, id, userID, friendID string) (*models.Friendship, error) {
	var edge models.Friendship
	err := r.db.QueryRowxContext(ctx, `
UPDATE friendships
SET user_id=$2, friend_id=$3, status='pending', created_at=NOW(), updated_at=NOW()
WHERE id=$1
RETURNING `+friendshipColumns+`
`, id, userID, friendID).StructScan(&edge)
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func (r *friendRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectRows(res)
}

// Replace deletes edge id and inserts the new edge in one transaction, so a failed insert keeps
// the old edge.
func (r *friendRepository) Replace(ctx context.Context, id, userID, friendID string, status models.FriendshipStatus) (*models.Friendship, error) {
	var edge models.Friendship
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM friendships WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if err := expectRows(res); err != nil {
			return err
		}
		return tx.QueryRowxContext(ctx, `
INSERT INTO friendships (user_id, friend_id, status)
VALUES ($1, $2, $3)
RETURNING `+friendshipColumns+`
`, userID, friendID, status).StructScan(&edge)
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func (r *friendRepository) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	var friends []string
	err := r.db.SelectContext(ctx, &friends, `
SELECT CASE WHEN user_id=$1 THEN friend_id ELSE user_id END
FROM friendships
WHERE (user_id=$1 OR friend_id=$1) AND status='accepted'
ORDER BY updated_at DESC
`, userID)
	return friends, err
}

func (r *friendRepository) ListIncoming(ctx context.Context, userID string) ([]models.Friendship, error) {
	var reqs []models.Friendship
	err := r.db.SelectContext(ctx, &reqs, `
SELECT `+friendshipColumns+`
FROM friendships
WHERE friend_id=$1 AND status='pending'
ORDER BY created_at DESC
`, userID)
	return reqs, err
}

func expectRows(res sql.Result) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return sql.ErrNoRows
	}
	return nil
}
