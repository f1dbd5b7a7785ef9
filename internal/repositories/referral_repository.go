package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"community-service/internal/models"
)

type ReferralRepository interface {
	Create(ctx context.Context, ref *models.Referral) error
	FindForMember(ctx context.Context, referredID, groupID string) (*models.Referral, error)
}

type referralRepository struct {
	db *sqlx.DB
}

func NewReferralRepository(db *sqlx.DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) Create(ctx context.Context, ref *models.Referral) error {
	return r.db.QueryRowxContext(ctx, `
INSERT INTO referrals (referrer_id, referred_id, group_id, note)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at
`, ref.ReferrerID, ref.ReferredID, ref.GroupID, ref.Note).Scan(&ref.ID, &ref.CreatedAt)
}

// FindForMember returns the latest referral of referredID into groupID, or (nil, nil).
func (r *referralRepository) FindForMember(ctx context.Context, referredID, groupID string) (*models.Referral, error) {
	var ref models.Referral
	err := r.db.GetContext(ctx, &ref, `
SELECT id, referrer_id, referred_id, group_id, note, created_at
FROM referrals
WHERE referred_id=$1 AND group_id=$2
ORDER BY created_at DESC
LIMIT 1
`, referredID, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}
