// Package permissions answers advisory yes/no questions about what a user may do.
// Decisions only shape client UX; row-level security and the ownership predicates in the
// repositories remain the enforcement layer.
package permissions

import (
	"context"
	"database/sql"
	"errors"

	"community-service/internal/cache"
	"community-service/internal/logger"
	"community-service/internal/metrics"
	"community-service/internal/models"
)

type Permission string

const (
	PermViewChurchData     Permission = "view_church_data"
	PermManageChurch       Permission = "manage_church"
	PermViewAdminDashboard Permission = "view_admin_dashboard"
	PermApproveGroups      Permission = "approve_groups"
	PermManageUsers        Permission = "manage_users"
	PermCreateGroup        Permission = "create_group"
	PermManageGroup        Permission = "manage_group"
	PermManageEvents       Permission = "manage_events"
	PermCreateReferral     Permission = "create_referral"
)

type ResourceType string

const (
	ResourceChurch     ResourceType = "church"
	ResourceUser       ResourceType = "user"
	ResourceGroup      ResourceType = "group"
	ResourceEvent      ResourceType = "event"
	ResourceMembership ResourceType = "membership"
)

func (t ResourceType) Valid() bool {
	switch t {
	case ResourceChurch, ResourceUser, ResourceGroup, ResourceEvent, ResourceMembership:
		return true
	}
	return false
}

const (
	ReasonNotAuthenticated   = "not authenticated"
	ReasonUnableToVerify     = "unable to verify permissions"
	ReasonInsufficient       = "insufficient permissions"
	ReasonChurchAdminOnly    = "only church admins can do that"
	ReasonOtherChurch        = "resource belongs to another church"
	ReasonNotChurchMember    = "not a member of this church"
	ReasonNoChurch           = "join a church first"
	ReasonGroupLeadersOnly   = "only group leaders can manage members"
	ReasonUnknownPermission  = "unknown permission"
	ReasonResourceIDRequired = "resource id is required"
)

type Decision struct {
	HasPermission bool   `json:"has_permission"`
	Reason        string `json:"reason,omitempty"`
}

func allow() Decision             { return Decision{HasPermission: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

type UserLoader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type MembershipLookup interface {
	GetByID(ctx context.Context, id string) (*models.GroupMembership, error)
	GetActiveForUser(ctx context.Context, groupID, userID string) (*models.GroupMembership, error)
}

type ResourceLookup interface {
	ChurchIDFor(ctx context.Context, resourceType, id string) (string, error)
	EventCreator(ctx context.Context, eventID string) (string, error)
}

// Resolver never returns errors: lookup failures become denials carrying a reason.
type Resolver struct {
	users       UserLoader
	memberships MembershipLookup
	resources   ResourceLookup
	cache       *cache.TTL[string, *models.User]
}

func NewResolver(users UserLoader, memberships MembershipLookup, resources ResourceLookup, userCache *cache.TTL[string, *models.User]) *Resolver {
	return &Resolver{users: users, memberships: memberships, resources: resources, cache: userCache}
}

// Invalidate drops the cached record of userID; call it after any role change.
func (r *Resolver) Invalidate(userID string) {
	r.cache.Delete(userID)
}

func (r *Resolver) CacheStats() cache.Stats {
	return r.cache.Stats()
}

func (r *Resolver) HasPermission(ctx context.Context, actorID string, perm Permission, resourceID string) Decision {
	return record("has_permission", r.hasPermission(ctx, actorID, perm, resourceID))
}

func (r *Resolver) hasPermission(ctx context.Context, actorID string, perm Permission, resourceID string) Decision {
	user, denied := r.loadActor(ctx, actorID)
	if denied != nil {
		return *denied
	}
	if user.IsSuperadmin() {
		return allow()
	}

	switch perm {
	case PermCreateReferral:
		return allow()
	case PermCreateGroup:
		if user.Church() == "" {
			return deny(ReasonNoChurch)
		}
		return allow()
	case PermViewChurchData:
		if resourceID == "" {
			resourceID = user.Church()
		}
		return churchMember(user, resourceID)
	case PermManageChurch, PermViewAdminDashboard, PermApproveGroups, PermManageUsers:
		if !user.IsChurchAdmin() {
			return deny(ReasonChurchAdminOnly)
		}
		if resourceID != "" && resourceID != user.Church() {
			return deny(ReasonOtherChurch)
		}
		return allow()
	case PermManageGroup:
		if resourceID == "" {
			return deny(ReasonResourceIDRequired)
		}
		return r.canModify(ctx, user, ResourceGroup, resourceID, "")
	case PermManageEvents:
		if resourceID == "" {
			if user.IsChurchAdmin() {
				return allow()
			}
			return deny(ReasonChurchAdminOnly)
		}
		creator, err := r.resources.EventCreator(ctx, resourceID)
		if err != nil {
			return r.lookupFailed("event creator", err)
		}
		return r.canModify(ctx, user, ResourceEvent, resourceID, creator)
	}
	return deny(ReasonUnknownPermission)
}

func (r *Resolver) CanModifyResource(ctx context.Context, actorID string, resourceType ResourceType, resourceID, ownerID string) Decision {
	user, denied := r.loadActor(ctx, actorID)
	if denied != nil {
		return record("can_modify_resource", *denied)
	}
	if user.IsSuperadmin() {
		return record("can_modify_resource", allow())
	}
	return record("can_modify_resource", r.canModify(ctx, user, resourceType, resourceID, ownerID))
}

func (r *Resolver) canModify(ctx context.Context, user *models.User, resourceType ResourceType, resourceID, ownerID string) Decision {
	if ownerID != "" && ownerID == user.ID {
		return allow()
	}

	if user.IsChurchAdmin() && user.Church() != "" {
		churchID, err := r.resources.ChurchIDFor(ctx, string(resourceType), resourceID)
		if err != nil {
			return r.lookupFailed("resource church", err)
		}
		if churchID == user.Church() {
			return allow()
		}
	}

	switch resourceType {
	case ResourceGroup:
		return r.leadership(ctx, user, resourceID, ReasonInsufficient)
	case ResourceMembership:
		membership, err := r.memberships.GetByID(ctx, resourceID)
		if err != nil {
			return r.lookupFailed("membership", err)
		}
		if membership.UserID == user.ID {
			return allow()
		}
		return r.leadership(ctx, user, membership.GroupID, ReasonInsufficient)
	}
	return deny(ReasonInsufficient)
}

// CanManageGroupMembership allows church admins of the group's church, the group's leaders
// and admins, and users acting on their own membership.
func (r *Resolver) CanManageGroupMembership(ctx context.Context, actorID, groupID, targetUserID string) Decision {
	return record("can_manage_group_membership", r.canManageGroupMembership(ctx, actorID, groupID, targetUserID))
}

func (r *Resolver) canManageGroupMembership(ctx context.Context, actorID, groupID, targetUserID string) Decision {
	user, denied := r.loadActor(ctx, actorID)
	if denied != nil {
		return *denied
	}
	if user.IsSuperadmin() {
		return allow()
	}
	if targetUserID != "" && targetUserID == user.ID {
		return allow()
	}
	if user.IsChurchAdmin() && user.Church() != "" {
		churchID, err := r.resources.ChurchIDFor(ctx, string(ResourceGroup), groupID)
		if err != nil {
			return r.lookupFailed("group church", err)
		}
		if churchID == user.Church() {
			return allow()
		}
	}
	return r.leadership(ctx, user, groupID, ReasonGroupLeadersOnly)
}

func (r *Resolver) CanAccessChurchData(ctx context.Context, actorID, churchID string) Decision {
	user, denied := r.loadActor(ctx, actorID)
	if denied != nil {
		return record("can_access_church_data", *denied)
	}
	if user.IsSuperadmin() {
		return record("can_access_church_data", allow())
	}
	return record("can_access_church_data", churchMember(user, churchID))
}

func (r *Resolver) leadership(ctx context.Context, user *models.User, groupID, reason string) Decision {
	membership, err := r.memberships.GetActiveForUser(ctx, groupID, user.ID)
	if err != nil {
		return r.lookupFailed("group membership", err)
	}
	if membership != nil && membership.IsLeadership() {
		return allow()
	}
	return deny(reason)
}

func (r *Resolver) loadActor(ctx context.Context, actorID string) (*models.User, *Decision) {
	if actorID == "" {
		d := deny(ReasonNotAuthenticated)
		return nil, &d
	}

	if user, ok := r.cache.Get(actorID); ok {
		metrics.IncPermissionCache(true)
		return user, nil
	}
	metrics.IncPermissionCache(false)

	user, err := r.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			d := deny(ReasonNotAuthenticated)
			return nil, &d
		}
		d := r.lookupFailed("user", err)
		return nil, &d
	}
	r.cache.Set(actorID, user)
	return user, nil
}

func (r *Resolver) lookupFailed(what string, err error) Decision {
	logger.Warn("permission lookup failed", "lookup", what, "error", err)
	return deny(ReasonUnableToVerify)
}

func churchMember(user *models.User, churchID string) Decision {
	if churchID == "" || user.Church() != churchID {
		return deny(ReasonNotChurchMember)
	}
	return allow()
}

func record(check string, d Decision) Decision {
	metrics.IncPermissionDecision(check, d.HasPermission)
	return d
}
