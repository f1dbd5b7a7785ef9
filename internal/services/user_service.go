package services

import (
	"context"
	"strings"

	"community-service/internal/apperrors"
	"community-service/internal/models"
	"community-service/internal/permissions"
	"community-service/internal/repositories"
)

var (
	ErrInvalidRoles       = apperrors.Validation("roles must be user, church_admin or superadmin")
	ErrSuperadminRequired = apperrors.Permission("only a superadmin can grant superadmin")
	ErrOwnRoles           = apperrors.Permission("you cannot change your own roles")
)

// UserService owns profiles, role assignment and account deletion.
type UserService struct {
	users      repositories.UserRepository
	authz      Authorizer
	notifier   Notifier
	tombstones *Tombstones
}

// NewUserService marks deleted accounts in tombstones, which the other services share so
// late reads on any user data table are reported silently.
func NewUserService(users repositories.UserRepository, authz Authorizer, notifier Notifier, tombstones *Tombstones) *UserService {
	return &UserService{
		users:      users,
		authz:      authz,
		notifier:   notifier,
		tombstones: tombstones,
	}
}

func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.tombstones.suppress(notFoundAs(err, "user"), "users", userID)
	}
	return user, nil
}

// Deleted reports whether userID was deleted within the grace window.
func (s *UserService) Deleted(userID string) bool {
	return s.tombstones.Deleted(userID)
}

// SetRoles replaces the user's role tags. Church admins may only change users of their own
// church and nobody can change their own roles.
func (s *UserService) SetRoles(ctx context.Context, actorID, userID string, roles []string) (*models.User, error) {
	if actorID == userID {
		return nil, ErrOwnRoles
	}
	cleaned, err := normalizeRoles(roles)
	if err != nil {
		return nil, err
	}

	if err := denied(s.authz.CanModifyResource(ctx, actorID, permissions.ResourceUser, userID, "")); err != nil {
		return nil, err
	}
	if contains(cleaned, models.RoleSuperadmin) {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return nil, notFoundAs(err, "user")
		}
		if !actor.IsSuperadmin() {
			return nil, ErrSuperadminRequired
		}
	}

	if err := s.users.SetRoles(ctx, userID, cleaned); err != nil {
		return nil, notFoundAs(err, "user")
	}
	s.authz.Invalidate(userID)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}

	notify(ctx, s.notifier, userID, models.NotifyRoleChanged,
		"Your role changed", "Your roles are now "+strings.Join(cleaned, ", "),
		map[string]any{"roles": cleaned})
	return user, nil
}

// DeleteAccount removes the user; the database cascade takes their friendships, memberships,
// notifications and referrals.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return s.tombstones.suppress(notFoundAs(err, "user"), "users", userID)
	}
	s.authz.Invalidate(userID)
	s.tombstones.Mark(userID)
	return nil
}

func normalizeRoles(roles []string) ([]string, error) {
	seen := make(map[string]bool, len(roles))
	cleaned := make([]string, 0, len(roles)+1)
	for _, r := range roles {
		r = strings.TrimSpace(strings.ToLower(r))
		if !models.ValidRole(r) {
			return nil, ErrInvalidRoles
		}
		if !seen[r] {
			seen[r] = true
			cleaned = append(cleaned, r)
		}
	}
	if !seen[models.RoleUser] {
		cleaned = append([]string{models.RoleUser}, cleaned...)
	}
	return cleaned, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
