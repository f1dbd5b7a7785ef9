package models

import "time"

type FriendshipStatus string

const (
	FriendshipNone     FriendshipStatus = "none"
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipRejected FriendshipStatus = "rejected"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Friendship is a directed edge: UserID initiated, FriendID received.
type Friendship struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	FriendID  string           `db:"friend_id" json:"friend_id"`
	Status    FriendshipStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// DirectionFor is incoming when the other party initiated the edge.
func (f *Friendship) DirectionFor(currentUserID string) Direction {
	if f.FriendID == currentUserID {
		return DirectionIncoming
	}
	return DirectionOutgoing
}

// FriendshipState is the relationship as seen by one of the two users.
type FriendshipState struct {
	Status       FriendshipStatus `json:"status"`
	Direction    Direction        `json:"direction,omitempty"`
	FriendshipID string           `json:"friendship_id,omitempty"`
}
