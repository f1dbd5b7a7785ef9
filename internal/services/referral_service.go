package services

import (
	"context"
	"errors"

	"github.com/microcosm-cc/bluemonday"

	"community-service/internal/apperrors"
	"community-service/internal/logger"
	"community-service/internal/models"
	"community-service/internal/permissions"
	"community-service/internal/repositories"
)

var ErrSelfReferral = apperrors.Validation("cannot refer yourself")

type ReferralService struct {
	referrals   repositories.ReferralRepository
	memberships repositories.MembershipRepository
	users       repositories.UserRepository
	groups      repositories.GroupRepository
	authz       Authorizer
	notifier    Notifier
	policy      *bluemonday.Policy
}

func NewReferralService(
	referrals repositories.ReferralRepository,
	memberships repositories.MembershipRepository,
	users repositories.UserRepository,
	groups repositories.GroupRepository,
	authz Authorizer,
	notifier Notifier,
) *ReferralService {
	return &ReferralService{
		referrals:   referrals,
		memberships: memberships,
		users:       users,
		groups:      groups,
		authz:       authz,
		notifier:    notifier,
		policy:      bluemonday.StrictPolicy(),
	}
}

type CreateReferralInput struct {
	ReferredID string  `json:"referred_id" binding:"required"`
	GroupID    *string `json:"group_id"`
	Note       string  `json:"note"`
}

// Create records a referral. With a group, the referred user also gets a pending newcomer
// membership at journey status 1 unless one already exists.
func (s *ReferralService) Create(ctx context.Context, referrerID string, in CreateReferralInput) (ref *models.Referral, err error) {
	defer trackMembership("referral", &err)

	if err := denied(s.authz.HasPermission(ctx, referrerID, permissions.PermCreateReferral, "")); err != nil {
		return nil, err
	}
	if in.ReferredID == referrerID {
		return nil, ErrSelfReferral
	}
	if _, err := s.users.GetByID(ctx, in.ReferredID); err != nil {
		return nil, notFoundAs(err, "user")
	}

	groupName := ""
	if in.GroupID != nil && *in.GroupID != "" {
		g, err := s.groups.GetByID(ctx, *in.GroupID)
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, apperrors.NotFound("group")
		}
		if err != nil {
			return nil, err
		}
		groupName = g.Name
	} else {
		in.GroupID = nil
	}

	ref = &models.Referral{
		ReferrerID: referrerID,
		ReferredID: in.ReferredID,
		GroupID:    in.GroupID,
		Note:       sanitize(s.policy, in.Note),
	}
	if err := s.referrals.Create(ctx, ref); err != nil {
		return nil, err
	}

	if ref.GroupID != nil {
		journey := models.JourneyReferred
		m := &models.GroupMembership{
			GroupID:       *ref.GroupID,
			UserID:        ref.ReferredID,
			Role:          models.MemberRoleMember,
			Status:        models.MembershipPending,
			JourneyStatus: &journey,
		}
		if err := s.memberships.Create(ctx, m); err != nil {
			if apperrors.Classify(err).Code != apperrors.CodeAlreadyExists {
				return nil, err
			}
			logger.Debug("referred user already has a membership", "group_id", *ref.GroupID, "user_id", ref.ReferredID)
		}
	}

	body := s.displayName(ctx, referrerID) + " referred you"
	if groupName != "" {
		body += " to " + groupName
	}
	data := map[string]any{"referral_id": ref.ID, "referrer_id": referrerID}
	if ref.GroupID != nil {
		data["group_id"] = *ref.GroupID
	}
	notify(ctx, s.notifier, ref.ReferredID, models.NotifyReferralReceived, "New referral", body, data)
	return ref, nil
}

func (s *ReferralService) displayName(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "Someone"
	}
	return user.DisplayName()
}
