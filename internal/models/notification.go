package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type NotificationType string

const (
	NotifyFriendRequest         NotificationType = "friend_request"
	NotifyFriendRequestAccepted NotificationType = "friend_request_accepted"
	NotifyJoinRequest           NotificationType = "join_request"
	NotifyJoinRequestApproved   NotificationType = "join_request_approved"
	NotifyJoinRequestDeclined   NotificationType = "join_request_declined"
	NotifyReferralReceived      NotificationType = "referral_received"
	NotifyReferralAccepted      NotificationType = "referral_accepted"
	NotifyReferralConnected     NotificationType = "referral_connected"
	NotifyGroupApproved         NotificationType = "group_approved"
	NotifyGroupDenied           NotificationType = "group_denied"
	NotifyEventReminder         NotificationType = "event_reminder"
	NotifyRoleChanged           NotificationType = "role_changed"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotifyFriendRequest, NotifyFriendRequestAccepted, NotifyJoinRequest, NotifyJoinRequestApproved,
		NotifyJoinRequestDeclined, NotifyReferralReceived, NotifyReferralAccepted, NotifyReferralConnected,
		NotifyGroupApproved, NotifyGroupDenied, NotifyEventReminder, NotifyRoleChanged:
		return true
	}
	return false
}

type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Type      NotificationType `db:"type" json:"type"`
	Title     string           `db:"title" json:"title"`
	Body      string           `db:"body" json:"body"`
	Data      types.JSONText   `db:"data" json:"data"`
	Read      bool             `db:"read" json:"read"`
	ActionURL *string          `db:"action_url" json:"action_url,omitempty"`
	ExpiresAt *time.Time       `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
