package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	RoleUser        = "user"
	RoleChurchAdmin = "church_admin"
	RoleSuperadmin  = "superadmin"
)

type User struct {
	ID                 string         `db:"id" json:"id"`
	FirstName          string         `db:"first_name" json:"first_name"`
	LastName           string         `db:"last_name" json:"last_name"`
	AvatarURL          *string        `db:"avatar_url" json:"avatar_url,omitempty"`
	Roles              pq.StringArray `db:"roles" json:"roles"`
	ChurchID           *string        `db:"church_id" json:"church_id,omitempty"`
	ServiceID          *string        `db:"service_id" json:"service_id,omitempty"`
	Newcomer           bool           `db:"newcomer" json:"newcomer"`
	OnboardingComplete bool           `db:"onboarding_complete" json:"onboarding_complete"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) IsSuperadmin() bool  { return u.HasRole(RoleSuperadmin) }
func (u *User) IsChurchAdmin() bool { return u.HasRole(RoleChurchAdmin) }

// Church returns the user's church id or "" when unaffiliated.
func (u *User) Church() string {
	if u.ChurchID == nil {
		return ""
	}
	return *u.ChurchID
}

func (u *User) Service() string {
	if u.ServiceID == nil {
		return ""
	}
	return *u.ServiceID
}

func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return "Someone"
	}
}

// ValidRole reports whether role is one of the user role tags.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleChurchAdmin, RoleSuperadmin:
		return true
	}
	return false
}
