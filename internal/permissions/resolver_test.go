package permissions_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"community-service/internal/cache"
	"community-service/internal/mocks"
	"community-service/internal/models"
	"community-service/internal/permissions"
)

type fixture struct {
	users       *mocks.MockUserRepository
	memberships *mocks.MockMembershipRepository
	resources   *mocks.MockResourceRepository
	resolver    *permissions.Resolver
}

func newFixture() *fixture {
	f := &fixture{
		users:       new(mocks.MockUserRepository),
		memberships: new(mocks.MockMembershipRepository),
		resources:   new(mocks.MockResourceRepository),
	}
	f.resolver = permissions.NewResolver(f.users, f.memberships, f.resources, cache.NewTTL[string, *models.User](time.Minute))
	return f
}

func church(id string) *string { return &id }

func TestSuperadminAllowedEverything(t *testing.T) {
	f := newFixture()
	f.users.On("GetByID", mock.Anything, "root").
		Return(&models.User{ID: "root", Roles: []string{models.RoleSuperadmin}}, nil).Once()
	ctx := context.Background()

	for _, perm := range []permissions.Permission{
		permissions.PermViewChurchData, permissions.PermManageChurch, permissions.PermViewAdminDashboard,
		permissions.PermApproveGroups, permissions.PermManageUsers, permissions.PermCreateGroup,
		permissions.PermManageGroup, permissions.PermManageEvents, permissions.PermCreateReferral,
	} {
		assert.True(t, f.resolver.HasPermission(ctx, "root", perm, "any").HasPermission, perm)
	}
	assert.True(t, f.resolver.CanModifyResource(ctx, "root", permissions.ResourceGroup, "g1", "").HasPermission)
	assert.True(t, f.resolver.CanManageGroupMembership(ctx, "root", "g1", "u1").HasPermission)
	assert.True(t, f.resolver.CanAccessChurchData(ctx, "root", "c9").HasPermission)

	f.users.AssertNumberOfCalls(t, "GetByID", 1)
	f.resources.AssertNotCalled(t, "ChurchIDFor", mock.Anything, mock.Anything, mock.Anything)
}

func TestUnauthenticatedActor(t *testing.T) {
	f := newFixture()
	f.users.On("GetByID", mock.Anything, "ghost").Return(nil, sql.ErrNoRows).Once()

	assert.Equal(t, permissions.ReasonNotAuthenticated,
		f.resolver.HasPermission(context.Background(), "", permissions.PermCreateReferral, "").Reason)
	assert.Equal(t, permissions.ReasonNotAuthenticated,
		f.resolver.HasPermission(context.Background(), "ghost", permissions.PermCreateReferral, "").Reason)
}

func TestLookupFailureDeniesWithReason(t *testing.T) {
	f := newFixture()
	f.users.On("GetByID", mock.Anything, "u1").Return(nil, errors.New("connection refused")).Once()

	d := f.resolver.HasPermission(context.Background(), "u1", permissions.PermCreateGroup, "")
	assert.False(t, d.HasPermission)
	assert.Equal(t, permissions.ReasonUnableToVerify, d.Reason)
}

func TestChurchAdminScopedToOwnChurch(t *testing.T) {
	f := newFixture()
	f.users.On("GetByID", mock.Anything, "admin").
		Return(&models.User{ID: "admin", Roles: []string{models.RoleChurchAdmin}, ChurchID: church("c1")}, nil).Once()
	ctx := context.Background()

	assert.True(t, f.resolver.HasPermission(ctx, "admin", permissions.PermViewAdminDashboard, "c1").HasPermission)
	assert.True(t, f.resolver.HasPermission(ctx, "admin", permissions.PermApproveGroups, "").HasPermission)
	d := f.resolver.HasPermission(ctx, "admin", permissions.PermManageChurch, "c2")
	assert.False(t, d.HasPermission)
	assert.Equal(t, permissions.ReasonOtherChurch, d.Reason)
}

func TestRegularUserCannotViewDashboard(t *testing.T) {
	f := newFixture()
	f.users.On("GetByID", mock.Anything, "u1").
		Return(&models.User{ID: "u1", Roles: []string{models.RoleUser}, ChurchID: church("c1")}, nil).Once()

	d := f.resolver.HasPermission(context.Background(), "u1", permissions.PermViewAdminDashboard, "")
	assert.False(t, d.HasPermission)
	assert.Equal(t, permissions.ReasonChurchAdminOnly, d.Reason)
}

// User A (church_admin of c1) manages user B's membership in a c1 group; user B cannot do the
// same to someone else, and nobody outside c1 can either.
func TestMembershipManagementScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.users.On("GetByID", mock.Anything, "A").
		Return(&models.User{ID: "A", Roles: []string{models.RoleChurchAdmin}, ChurchID: church("c1")}, nil).Once()
	f.users.On("GetByID", mock.Anything, "B").
		Return(&models.User{ID: "B", Roles: []string{models.RoleUser}, ChurchID: church("c1")}, nil).Once()
	f.users.On("GetByID", mock.Anything, "C").
		Return(&models.User{ID: "C", Roles: []string{models.RoleChurchAdmin}, ChurchID: church("c2")}, nil).Once()
	f.resources.On("ChurchIDFor", mock.Anything, "group", "g1").Return("c1", nil)
	f.memberships.On("GetActiveForUser", mock.Anything, "g1", "B").
		Return(&models.GroupMembership{GroupID: "g1", UserID: "B", Role: models.MemberRoleMember, Status: models.MembershipActive}, nil)
	f.memberships.On("GetActiveForUser", mock.Anything, "g1", "C").Return(nil, nil)

	assert.True(t, f.resolver.CanManageGroupMembership(ctx, "A", "g1", "B").HasPermission)
	assert.True(t, f.resolver.CanManageGroupMembership(ctx, "B", "g1", "B").HasPermission)

	d := f.resolver.CanManageGroupMembership(ctx, "B", "g1", "D")
	assert.False(t, d.HasPermission)
	assert.Equal(t, permissions.ReasonGroupLeadersOnly, d.Reason)

	d = f.resolver.CanManageGroupMembership(ctx, "C", "g1", "B")
	assert.False(t, d.HasPermission)
	assert.Equal(t, permissions.ReasonGroupLeadersOnly, d.Reason)
}

func TestGroupLeaderManagesMembers(t *testing.T) {
	f := newFixture()
	f.users.On("GetByID", mock.Anything, "L").
		Return(&models.User{ID: "L", Roles: []string{models.RoleUser}, ChurchID: church("c1")}, nil).Once()
	f.memberships.On("GetActiveForUser", mock.Anything, "g1", "L").
		Return(&models.GroupMembership{Role: models.MemberRoleLeader, Status: models.MembershipActive}, nil).Once()

	assert.True(t, f.resolver.CanManageGroupMembership(context.Background(), "L", "g1", "X").HasPermission)
}

func TestOwnerCanModifyOwnResource(t *testing.T) {
	f := newFixture()
	f.users.On("GetByID", mock.Anything, "u1").Return(&models.User{ID: "u1", Roles: []string{models.RoleUser}}, nil).Once()

	assert.True(t, f.resolver.CanModifyResource(context.Background(), "u1", permissions.ResourceEvent, "e1", "u1").HasPermission)
	d := f.resolver.CanModifyResource(context.Background(), "u1", permissions.ResourceEvent, "e2", "u2")
	assert.False(t, d.HasPermission)
	assert.Equal(t, permissions.ReasonInsufficient, d.Reason)
}

func TestCanAccessChurchData(t *testing.T) {
	f := newFixture()
	f.users.On("GetByID", mock.Anything, "u1").
		Return(&models.User{ID: "u1", Roles: []string{models.RoleUser}, ChurchID: church("c1")}, nil).Once()

	assert.True(t, f.resolver.CanAccessChurchData(context.Background(), "u1", "c1").HasPermission)
	assert.Equal(t, permissions.ReasonNotChurchMember, f.resolver.CanAccessChurchData(context.Background(), "u1", "c2").Reason)
}

func TestInvalidateReloadsUser(t *testing.T) {
	f := newFixture()
	f.users.On("GetByID", mock.Anything, "u1").
		Return(&models.User{ID: "u1", Roles: []string{models.RoleUser}}, nil).Once()
	f.users.On("GetByID", mock.Anything, "u1").
		Return(&models.User{ID: "u1", Roles: []string{models.RoleUser, models.RoleChurchAdmin}}, nil).Once()
	ctx := context.Background()

	assert.False(t, f.resolver.HasPermission(ctx, "u1", permissions.PermManageUsers, "").HasPermission)
	assert.False(t, f.resolver.HasPermission(ctx, "u1", permissions.PermManageUsers, "").HasPermission)

	f.resolver.Invalidate("u1")
	assert.True(t, f.resolver.HasPermission(ctx, "u1", permissions.PermManageUsers, "").HasPermission)

	stats := f.resolver.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
}

func TestUnknownPermission(t *testing.T) {
	f := newFixture()
	f.users.On("GetByID", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil).Once()

	d := f.resolver.HasPermission(context.Background(), "u1", permissions.Permission("fly"), "")
	assert.Equal(t, permissions.ReasonUnknownPermission, d.Reason)
}
