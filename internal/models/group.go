package models

import "time"

type GroupStatus string

const (
	GroupPending  GroupStatus = "pending"
	GroupApproved GroupStatus = "approved"
	GroupActive   GroupStatus = "active"
	GroupDenied   GroupStatus = "denied"
	GroupClosed   GroupStatus = "closed"
)

type Group struct {
	ID         string      `db:"id" json:"id"`
	Name       string      `db:"name" json:"name"`
	ChurchID   string      `db:"church_id" json:"church_id"`
	ServiceID  *string     `db:"service_id" json:"service_id,omitempty"`
	LeaderID   *string     `db:"leader_id" json:"leader_id,omitempty"`
	Status     GroupStatus `db:"status" json:"status"`
	MaxMembers *int        `db:"max_members" json:"max_members,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

const (
	MemberRoleMember = "member"
	MemberRoleLeader = "leader"
	MemberRoleAdmin  = "admin"
)

const (
	MembershipActive   = "active"
	MembershipInactive = "inactive"
	MembershipPending  = "pending"
)

// Journey statuses track a newcomer's progress toward being connected.
const (
	JourneyReferred  = 1
	JourneyContacted = 2
	JourneyConnected = 3
)

type GroupMembership struct {
	ID            string    `db:"id" json:"id"`
	GroupID       string    `db:"group_id" json:"group_id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Role          string    `db:"role" json:"role"`
	Status        string    `db:"status" json:"status"`
	JourneyStatus *int      `db:"journey_status" json:"journey_status,omitempty"`
	JoinedAt      time.Time `db:"joined_at" json:"joined_at"`
}

func (m *GroupMembership) IsLeadership() bool {
	return m.Status == MembershipActive && (m.Role == MemberRoleLeader || m.Role == MemberRoleAdmin)
}

func (m *GroupMembership) Journey() int {
	if m.JourneyStatus == nil {
		return 0
	}
	return *m.JourneyStatus
}

func ValidMemberRole(role string) bool {
	switch role {
	case MemberRoleMember, MemberRoleLeader, MemberRoleAdmin:
		return true
	}
	return false
}

const NoteActionArchived = "archived"

type MembershipNote struct {
	ID           string    `db:"id" json:"id"`
	MembershipID string    `db:"membership_id" json:"membership_id"`
	Action       string    `db:"action" json:"action"`
	Reason       string    `db:"reason" json:"reason"`
	Note         string    `db:"note" json:"note"`
	CreatedBy    *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
