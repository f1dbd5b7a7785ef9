package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"community-service/internal/models"
)

var ErrMembershipNotFound = errors.New("membership not found")

const membershipColumns = `id, group_id, user_id, role, status, journey_status, joined_at`

// MembershipRepository covers group_memberships and their group_membership_notes.
// Memberships are never hard-deleted; removal flips status to inactive.
type MembershipRepository interface {
	GetByID(ctx context.Context, id string) (*models.GroupMembership, error)
	GetActiveForUser(ctx context.Context, groupID, userID string) (*models.GroupMembership, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]models.GroupMembership, error)
	CountActiveByGroups(ctx context.Context, groupIDs []string) (map[string]int, error)
	CountPendingByGroups(ctx context.Context, groupIDs []string) (int, error)
	ListArchivedNotesByGroups(ctx context.Context, groupIDs []string) ([]models.MembershipNote, error)
	Create(ctx context.Context, m *models.GroupMembership) error
	UpdateStatus(ctx context.Context, id, status string) error
	Approve(ctx context.Context, id string) (*models.GroupMembership, error)
	UpdateJourneyStatus(ctx context.Context, id string, journey int) error
	UpdateRole(ctx context.Context, id, role string) error
	Archive(ctx context.Context, membershipID, reason, note, archivedBy string) (*models.MembershipNote, error)
}

type membershipRepository struct {
	db *sqlx.DB
}

func NewMembershipRepository(db *sqlx.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) GetByID(ctx context.Context, id string) (*models.GroupMembership, error) {
	var m models.GroupMembership
	err := r.db.GetContext(ctx, &m, `SELECT `+membershipColumns+` FROM group_memberships WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetActiveForUser returns (nil, nil) when the user has no active membership in the group.
func (r *membershipRepository) GetActiveForUser(ctx context.Context, groupID, userID string) (*models.GroupMembership, error) {
	var m models.GroupMembership
	err := r.db.GetContext(ctx, &m, `
SELECT `+membershipColumns+`
FROM group_memberships
WHERE group_id=$1 AND user_id=$2 AND status='active'
`, groupID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepository) ListByUsers(ctx context.Context, userIDs []string) ([]models.GroupMembership, error) {
	var rows []models.GroupMembership
	if len(userIDs) == 0 {
		return rows, nil
	}
	err := r.db.SelectContext(ctx, &rows, `SELECT `+membershipColumns+` FROM group_memberships WHERE user_id = ANY($1)`, pq.Array(userIDs))
	return rows, err
}

func (r *membershipRepository) CountActiveByGroups(ctx context.Context, groupIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(groupIDs))
	if len(groupIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		GroupID string `db:"group_id"`
		Count   int    `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows, `
SELECT group_id, COUNT(*) AS count
FROM group_memberships
WHERE group_id = ANY($1) AND status='active'
GROUP BY group_id
`, pq.Array(groupIDs))
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.GroupID] = row.Count
	}
	return counts, nil
}

func (r *membershipRepository) CountPendingByGroups(ctx context.Context, groupIDs []string) (int, error) {
	if len(groupIDs) == 0 {
		return 0, nil
	}
	var count int
	err := r.db.GetContext(ctx, &count, `
SELECT COUNT(*) FROM group_memberships
WHERE group_id = ANY($1) AND status='pending'
`, pq.Array(groupIDs))
	return count, err
}

func (r *membershipRepository) ListArchivedNotesByGroups(ctx context.Context, groupIDs []string) ([]models.MembershipNote, error) {
	var notes []models.MembershipNote
	if len(groupIDs) == 0 {
		return notes, nil
	}
	err := r.db.SelectContext(ctx, &notes, `
SELECT n.id, n.membership_id, n.action, n.reason, n.note, n.created_by, n.created_at
FROM group_membership_notes n
INNER JOIN group_memberships gm ON gm.id = n.membership_id
WHERE gm.group_id = ANY($1) AND n.action=$2
ORDER BY n.created_at DESC
`, pq.Array(groupIDs), models.NoteActionArchived)
	return notes, err
}

func (r *membershipRepository) Create(ctx context.Context, m *models.GroupMembership) error {
	return r.db.QueryRowxContext(ctx, `
INSERT INTO group_memberships (group_id, user_id, role, status, journey_status)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, joined_at
`, m.GroupID, m.UserID, m.Role, m.Status, m.JourneyStatus).Scan(&m.ID, &m.JoinedAt)
}

func (r *membershipRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE group_memberships SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	return expectRows(res)
}

// Approve activates a pending membership and advances a journey at 1 to 2 in one statement.
// It returns sql.ErrNoRows when the membership is no longer pending.
func (r *membershipRepository) Approve(ctx context.Context, id string) (*models.GroupMembership, error) {
	var m models.GroupMembership
	err := r.db.QueryRowxContext(ctx, `
UPDATE group_memberships
SET status=$2,
    journey_status = CASE WHEN journey_status=$4 THEN $5 ELSE journey_status END
WHERE id=$1 AND status=$3
RETURNING `+membershipColumns+`
`, id, models.MembershipActive, models.MembershipPending, models.JourneyReferred, models.JourneyContacted).StructScan(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepository) UpdateJourneyStatus(ctx context.Context, id string, journey int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE group_memberships SET journey_status=$2 WHERE id=$1`, id, journey)
	if err != nil {
		return err
	}
	return expectRows(res)
}

func (r *membershipRepository) UpdateRole(ctx context.Context, id, role string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE group_memberships SET role=$2 WHERE id=$1`, id, role)
	if err != nil {
		return err
	}
	return expectRows(res)
}

// Archive records the archived note and soft-removes the membership in one transaction.
func (r *membershipRepository) Archive(ctx context.Context, membershipID, reason, note, archivedBy string) (*models.MembershipNote, error) {
	var saved models.MembershipNote
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE group_memberships SET status='inactive' WHERE id=$1`, membershipID)
		if err != nil {
			return err
		}
		if err := expectRows(res); err != nil {
			return ErrMembershipNotFound
		}
		return tx.QueryRowxContext(ctx, `
INSERT INTO group_membership_notes (membership_id, action, reason, note, created_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, membership_id, action, reason, note, created_by, created_at
`, membershipID, models.NoteActionArchived, reason, note, archivedBy).StructScan(&saved)
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
