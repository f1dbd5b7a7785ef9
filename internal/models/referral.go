package models

import "time"

type Referral struct {
	ID         string    `db:"id" json:"id"`
	ReferrerID string    `db:"referrer_id" json:"referrer_id"`
	ReferredID string    `db:"referred_id" json:"referred_id"`
	GroupID    *string   `db:"group_id" json:"group_id,omitempty"`
	Note       string    `db:"note" json:"note"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
