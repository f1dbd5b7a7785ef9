package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/microcosm-cc/bluemonday"

	"community-service/internal/apperrors"
	"community-service/internal/metrics"
	"community-service/internal/models"
	"community-service/internal/repositories"
)

var (
	ErrNotPending     = apperrors.New(apperrors.KindValidation, apperrors.CodeInvalidTransition, "only pending requests can be approved")
	ErrReasonRequired = apperrors.Validation("a reason is required to archive a request")
	ErrInvalidJourney = apperrors.Validation("journey status must be between 1 and 3")
	ErrInvalidRole    = apperrors.Validation("role must be member, leader or admin")
)

const maxNoteLength = 1000

// MembershipService moves join requests through approval and the newcomer journey.
type MembershipService struct {
	memberships repositories.MembershipRepository
	groups      repositories.GroupRepository
	referrals   repositories.ReferralRepository
	authz       Authorizer
	notifier    Notifier
	policy      *bluemonday.Policy
	tombstones  *Tombstones
}

func NewMembershipService(
	memberships repositories.MembershipRepository,
	groups repositories.GroupRepository,
	referrals repositories.ReferralRepository,
	authz Authorizer,
	notifier Notifier,
) *MembershipService {
	return &MembershipService{
		memberships: memberships,
		groups:      groups,
		referrals:   referrals,
		authz:       authz,
		notifier:    notifier,
		policy:      bluemonday.StrictPolicy(),
	}
}

// WithTombstones silences lookups that race the deletion of the acting user.
func (s *MembershipService) WithTombstones(t *Tombstones) *MembershipService {
	s.tombstones = t
	return s
}

func (s *MembershipService) ApproveRequest(ctx context.Context, actorID, membershipID string) (m *models.GroupMembership, err error) {
	defer trackMembership("approve", &err)

	current, err := s.authorized(ctx, actorID, membershipID, false)
	if err != nil {
		return nil, err
	}
	if current.Status != models.MembershipPending {
		return nil, ErrNotPending
	}
	m, err = s.memberships.Approve(ctx, current.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, m.UserID, models.NotifyJoinRequestApproved,
		"Request approved", "You've been added to "+s.groupName(ctx, m.GroupID),
		map[string]any{"group_id": m.GroupID, "membership_id": m.ID})
	return m, nil
}

// ArchiveRequest declines a request. The note and the inactive flip are written together.
func (s *MembershipService) ArchiveRequest(ctx context.Context, actorID, membershipID, reason, note string) (saved *models.MembershipNote, err error) {
	defer trackMembership("archive", &err)

	reason = sanitize(s.policy, reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	note = sanitize(s.policy, note)
	if runes := []rune(note); len(runes) > maxNoteLength {
		note = string(runes[:maxNoteLength])
	}

	m, err := s.authorized(ctx, actorID, membershipID, true)
	if err != nil {
		return nil, err
	}
	saved, err = s.memberships.Archive(ctx, m.ID, reason, note, actorID)
	if err != nil {
		return nil, s.tombstones.suppress(membershipNotFound(err), "group_memberships", actorID)
	}

	notify(ctx, s.notifier, m.UserID, models.NotifyJoinRequestDeclined,
		"Request declined", "Your request to join "+s.groupName(ctx, m.GroupID)+" was declined",
		map[string]any{"group_id": m.GroupID, "reason": reason})
	return saved, nil
}

func (s *MembershipService) UpdateJourney(ctx context.Context, actorID, membershipID string, journey int) (m *models.GroupMembership, err error) {
	defer trackMembership("journey", &err)

	if journey < models.JourneyReferred || journey > models.JourneyConnected {
		return nil, ErrInvalidJourney
	}
	m, err = s.authorized(ctx, actorID, membershipID, false)
	if err != nil {
		return nil, err
	}
	previous := m.Journey()
	if err := s.memberships.UpdateJourneyStatus(ctx, m.ID, journey); err != nil {
		return nil, membershipNotFound(err)
	}
	m.JourneyStatus = &journey

	if journey == models.JourneyConnected && previous != models.JourneyConnected {
		s.notifyReferrer(ctx, m)
	}
	return m, nil
}

func (s *MembershipService) notifyReferrer(ctx context.Context, m *models.GroupMembership) {
	ref, err := s.referrals.FindForMember(ctx, m.UserID, m.GroupID)
	if err != nil || ref == nil {
		return
	}
	notify(ctx, s.notifier, ref.ReferrerID, models.NotifyReferralConnected,
		"Referral connected", "Someone you referred is now connected to "+s.groupName(ctx, m.GroupID),
		map[string]any{"group_id": m.GroupID, "referral_id": ref.ID})
}

func (s *MembershipService) SetRole(ctx context.Context, actorID, membershipID, role string) (m *models.GroupMembership, err error) {
	defer trackMembership("role", &err)

	if !models.ValidMemberRole(role) {
		return nil, ErrInvalidRole
	}
	m, err = s.authorized(ctx, actorID, membershipID, false)
	if err != nil {
		return nil, err
	}
	if m.Role == role {
		return m, nil
	}
	if err := s.memberships.UpdateRole(ctx, m.ID, role); err != nil {
		return nil, membershipNotFound(err)
	}
	m.Role = role

	notify(ctx, s.notifier, m.UserID, models.NotifyRoleChanged,
		"Your role changed", "You are now a "+role+" of "+s.groupName(ctx, m.GroupID),
		map[string]any{"group_id": m.GroupID, "role": role})
	return m, nil
}

// authorized loads the membership and checks the actor may manage it. Only selfService
// actions (withdrawing or leaving) accept the member acting on their own row; approval, role
// and journey changes need a church admin or a group leader.
func (s *MembershipService) authorized(ctx context.Context, actorID, membershipID string, selfService bool) (*models.GroupMembership, error) {
	m, err := s.memberships.GetByID(ctx, membershipID)
	if err != nil {
		return nil, s.tombstones.suppress(membershipNotFound(err), "group_memberships", actorID)
	}
	target := ""
	if selfService {
		target = m.UserID
	}
	if err := denied(s.authz.CanManageGroupMembership(ctx, actorID, m.GroupID, target)); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MembershipService) groupName(ctx context.Context, groupID string) string {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil || g.Name == "" {
		return "your group"
	}
	return g.Name
}

func membershipNotFound(err error) error {
	if errors.Is(err, repositories.ErrMembershipNotFound) {
		return apperrors.NotFound("membership")
	}
	return notFoundAs(err, "membership")
}

func trackMembership(action string, err *error) {
	status := metrics.StatusSuccess
	if *err != nil {
		status = metrics.StatusFailed
	}
	metrics.IncMembershipAction(action, status)
}
