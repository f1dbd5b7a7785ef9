package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"community-service/internal/models"
	"community-service/internal/permissions"
)

// MockUserRepository mocks UserRepository for services and the permission resolver.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	var user *models.User
	if val := args.Get(0); val != nil {
		user = val.(*models.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) ListNewcomersByChurch(ctx context.Context, churchID string) ([]models.User, error) {
	args := m.Called(ctx, churchID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *MockUserRepository) SetRoles(ctx context.Context, id string, roles []string) error {
	args := m.Called(ctx, id, roles)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFriendRepository mocks FriendRepository behavior for handlers and services.
type MockFriendRepository struct {
	mock.Mock
}

func (m *MockFriendRepository) FindBetween(ctx context.Context, userID, otherID string) (*models.Friendship, error) {
	args := m.Called(ctx, userID, otherID)
	var edge *models.Friendship
	if val := args.Get(0); val != nil {
		edge = val.(*models.Friendship)
	}
	return edge, args.Error(1)
}

func (m *MockFriendRepository) Create(ctx context.Context, userID, friendID string, status models.FriendshipStatus) (*models.Friendship, error) {
	args := m.Called(ctx, userID, friendID, status)
	var edge *models.Friendship
	if val := args.Get(0); val != nil {
		edge = val.(*models.Friendship)
	}
	return edge, args.Error(1)
}

func (m *MockFriendRepository) UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockFriendRepository) Replace(ctx context.Context, id, userID, friendID string, status models.FriendshipStatus) (*models.Friendship, error) {
	args := m.Called(ctx, id, userID, friendID, status)
	var edge *models.Friendship
	if val := args.Get(0); val != nil {
		edge = val.(*models.Friendship)
	}
	return edge, args.Error(1)
}

func (m *MockFriendRepository) Reopen(ctx context.Context, id, userID, friendID string) (*models.Friendship, error) {
	args := m.Called(ctx, id, userID, friendID)
	var edge *models.Friendship
	if val := args.Get(0); val != nil {
		edge = val.(*models.Friendship)
	}
	return edge, args.Error(1)
}

func (m *MockFriendRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFriendRepository) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *MockFriendRepository) ListIncoming(ctx context.Context, userID string) ([]models.Friendship, error) {
	args := m.Called(ctx, userID)
	var reqs []models.Friendship
	if val := args.Get(0); val != nil {
		reqs = val.([]models.Friendship)
	}
	return reqs, args.Error(1)
}

type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	args := m.Called(ctx, id)
	var g *models.Group
	if val := args.Get(0); val != nil {
		g = val.(*models.Group)
	}
	return g, args.Error(1)
}

func (m *MockGroupRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Group, error) {
	args := m.Called(ctx, ids)
	var groups []models.Group
	if val := args.Get(0); val != nil {
		groups = val.([]models.Group)
	}
	return groups, args.Error(1)
}

func (m *MockGroupRepository) ListByChurch(ctx context.Context, churchID string, statuses []models.GroupStatus) ([]models.Group, error) {
	args := m.Called(ctx, churchID, statuses)
	var groups []models.Group
	if val := args.Get(0); val != nil {
		groups = val.([]models.Group)
	}
	return groups, args.Error(1)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) GetByID(ctx context.Context, id string) (*models.GroupMembership, error) {
	args := m.Called(ctx, id)
	var gm *models.GroupMembership
	if val := args.Get(0); val != nil {
		gm = val.(*models.GroupMembership)
	}
	return gm, args.Error(1)
}

func (m *MockMembershipRepository) GetActiveForUser(ctx context.Context, groupID, userID string) (*models.GroupMembership, error) {
	args := m.Called(ctx, groupID, userID)
	var gm *models.GroupMembership
	if val := args.Get(0); val != nil {
		gm = val.(*models.GroupMembership)
	}
	return gm, args.Error(1)
}

func (m *MockMembershipRepository) ListByUsers(ctx context.Context, userIDs []string) ([]models.GroupMembership, error) {
	args := m.Called(ctx, userIDs)
	var list []models.GroupMembership
	if val := args.Get(0); val != nil {
		list = val.([]models.GroupMembership)
	}
	return list, args.Error(1)
}

func (m *MockMembershipRepository) CountActiveByGroups(ctx context.Context, groupIDs []string) (map[string]int, error) {
	args := m.Called(ctx, groupIDs)
	var counts map[string]int
	if val := args.Get(0); val != nil {
		counts = val.(map[string]int)
	}
	return counts, args.Error(1)
}

func (m *MockMembershipRepository) CountPendingByGroups(ctx context.Context, groupIDs []string) (int, error) {
	args := m.Called(ctx, groupIDs)
	return args.Int(0), args.Error(1)
}

func (m *MockMembershipRepository) ListArchivedNotesByGroups(ctx context.Context, groupIDs []string) ([]models.MembershipNote, error) {
	args := m.Called(ctx, groupIDs)
	var notes []models.MembershipNote
	if val := args.Get(0); val != nil {
		notes = val.([]models.MembershipNote)
	}
	return notes, args.Error(1)
}

func (m *MockMembershipRepository) Create(ctx context.Context, gm *models.GroupMembership) error {
	args := m.Called(ctx, gm)
	return args.Error(0)
}

func (m *MockMembershipRepository) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockMembershipRepository) UpdateJourneyStatus(ctx context.Context, id string, journey int) error {
	args := m.Called(ctx, id, journey)
	return args.Error(0)
}

func (m *MockMembershipRepository) UpdateRole(ctx context.Context, id, role string) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockMembershipRepository) Approve(ctx context.Context, id string) (*models.GroupMembership, error) {
	args := m.Called(ctx, id)
	var gm *models.GroupMembership
	if val := args.Get(0); val != nil {
		gm = val.(*models.GroupMembership)
	}
	return gm, args.Error(1)
}

func (m *MockMembershipRepository) Archive(ctx context.Context, membershipID, reason, note, archivedBy string) (*models.MembershipNote, error) {
	args := m.Called(ctx, membershipID, reason, note, archivedBy)
	var n *models.MembershipNote
	if val := args.Get(0); val != nil {
		n = val.(*models.MembershipNote)
	}
	return n, args.Error(1)
}

type MockResourceRepository struct {
	mock.Mock
}

func (m *MockResourceRepository) ChurchIDFor(ctx context.Context, resourceType, id string) (string, error) {
	args := m.Called(ctx, resourceType, id)
	return args.String(0), args.Error(1)
}

func (m *MockResourceRepository) EventCreator(ctx context.Context, eventID string) (string, error) {
	args := m.Called(ctx, eventID)
	return args.String(0), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) Create(ctx context.Context, ref *models.Referral) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockReferralRepository) FindForMember(ctx context.Context, referredID, groupID string) (*models.Referral, error) {
	args := m.Called(ctx, referredID, groupID)
	var ref *models.Referral
	if val := args.Get(0); val != nil {
		ref = val.(*models.Referral)
	}
	return ref, args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID string, kind models.NotificationType, title, body string, data map[string]any) error {
	args := m.Called(ctx, userID, kind, title, body, data)
	return args.Error(0)
}

type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) SendToUser(userID string, payload any) {
	m.Called(userID, payload)
}

// MockAuthorizer mocks the advisory permission checks consulted by services.
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) HasPermission(ctx context.Context, actorID string, perm permissions.Permission, resourceID string) permissions.Decision {
	args := m.Called(ctx, actorID, perm, resourceID)
	return args.Get(0).(permissions.Decision)
}

func (m *MockAuthorizer) CanModifyResource(ctx context.Context, actorID string, resourceType permissions.ResourceType, resourceID, ownerID string) permissions.Decision {
	args := m.Called(ctx, actorID, resourceType, resourceID, ownerID)
	return args.Get(0).(permissions.Decision)
}

func (m *MockAuthorizer) CanManageGroupMembership(ctx context.Context, actorID, groupID, targetUserID string) permissions.Decision {
	args := m.Called(ctx, actorID, groupID, targetUserID)
	return args.Get(0).(permissions.Decision)
}

func (m *MockAuthorizer) Invalidate(userID string) {
	m.Called(userID)
}
