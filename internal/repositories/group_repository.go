package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"community-service/internal/models"
)

var ErrGroupNotFound = errors.New("group not found")

const groupColumns = `id, name, church_id, service_id, leader_id, status, max_members, created_at`

// GroupRepository abstracts group persistence.
type GroupRepository interface {
	GetByID(ctx context.Context, id string) (*models.Group, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Group, error)
	ListByChurch(ctx context.Context, churchID string, statuses []models.GroupStatus) ([]models.Group, error)
}

type groupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT `+groupColumns+` FROM groups WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Group, error) {
	var groups []models.Group
	if len(ids) == 0 {
		return groups, nil
	}
	err := r.db.SelectContext(ctx, &groups, `SELECT `+groupColumns+` FROM groups WHERE id = ANY($1)`, pq.Array(ids))
	return groups, err
}

func (r *groupRepository) ListByChurch(ctx context.Context, churchID string, statuses []models.GroupStatus) ([]models.Group, error) {
	raw := make([]string, 0, len(statuses))
	for _, s := range statuses {
		raw = append(raw, string(s))
	}
	var groups []models.Group
	err := r.db.SelectContext(ctx, &groups, `
SELECT `+groupColumns+`
FROM groups
WHERE church_id=$1 AND status = ANY($2)
ORDER BY created_at DESC
`, churchID, pq.Array(raw))
	return groups, err
}
