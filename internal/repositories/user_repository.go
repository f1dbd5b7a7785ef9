package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"community-service/internal/models"
)

const userColumns = `id, first_name, last_name, avatar_url, roles, church_id, service_id, newcomer, onboarding_complete, created_at`

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListNewcomersByChurch(ctx context.Context, churchID string) ([]models.User, error)
	SetRoles(ctx context.Context, id string, roles []string) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id=$1", id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListNewcomersByChurch(ctx context.Context, churchID string) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users WHERE church_id=$1 AND newcomer=TRUE", churchID)
	return users, err
}

func (r *userRepository) SetRoles(ctx context.Context, id string, roles []string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET roles=$2 WHERE id=$1", id, pq.Array(roles))
	if err != nil {
		return err
	}
	return expectRows(res)
}

// Delete removes the user row; friendships, memberships, notifications and referrals go with it
// through ON DELETE CASCADE.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id=$1", id)
	if err != nil {
		return err
	}
	return expectRows(res)
}
