package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ResourceRepository answers ownership questions about arbitrary resources for the
// permission resolver.
type ResourceRepository interface {
	ChurchIDFor(ctx context.Context, resourceType, id string) (string, error)
	EventCreator(ctx context.Context, eventID string) (string, error)
}

type resourceRepository struct {
	db *sqlx.DB
}

func NewResourceRepository(db *sqlx.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

var churchLookups = map[string]string{
	"church":     `SELECT id::text FROM churches WHERE id=$1`,
	"user":       `SELECT COALESCE(church_id::text, '') FROM users WHERE id=$1`,
	"group":      `SELECT church_id::text FROM groups WHERE id=$1`,
	"event":      `SELECT church_id::text FROM events WHERE id=$1`,
	"membership": `SELECT g.church_id::text FROM group_memberships gm INNER JOIN groups g ON g.id = gm.group_id WHERE gm.id=$1`,
}

// ChurchIDFor returns "" when the resource exists but has no church affiliation.
func (r *resourceRepository) ChurchIDFor(ctx context.Context, resourceType, id string) (string, error) {
	query, ok := churchLookups[resourceType]
	if !ok {
		return "", fmt.Errorf("unknown resource type %q", resourceType)
	}
	var churchID string
	if err := r.db.GetContext(ctx, &churchID, query, id); err != nil {
		return "", err
	}
	return churchID, nil
}

func (r *resourceRepository) EventCreator(ctx context.Context, eventID string) (string, error) {
	var creator sql.NullString
	err := r.db.GetContext(ctx, &creator, `SELECT created_by::text FROM events WHERE id=$1`, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return creator.String, nil
}
