package services

import (
	"context"

	"community-service/internal/apperrors"
	"community-service/internal/metrics"
	"community-service/internal/models"
	"community-service/internal/repositories"
)

var (
	ErrSelfRequest       = apperrors.Validation("cannot send a friend request to yourself")
	ErrAlreadyFriends    = apperrors.New(apperrors.KindValidation, apperrors.CodeAlreadyExists, "users are already friends")
	ErrRequestExists     = apperrors.New(apperrors.KindValidation, apperrors.CodeAlreadyExists, "a pending friend request already exists")
	ErrBlocked           = apperrors.New(apperrors.KindPermission, apperrors.CodeForbidden, "this user is not accepting friend requests")
	ErrNoPendingRequest  = apperrors.New(apperrors.KindValidation, apperrors.CodeNotFound, "no pending friend request from this user")
	ErrNoOutgoingRequest = apperrors.New(apperrors.KindValidation, apperrors.CodeNotFound, "no pending friend request to this user")
	ErrNotFriends        = apperrors.New(apperrors.KindValidation, apperrors.CodeNotFound, "users are not friends")
	ErrInvalidTransition = apperrors.New(apperrors.KindValidation, apperrors.CodeInvalidTransition, "only a rejected incoming request can be accepted again")
)

// FriendshipService resolves and mutates the relationship between two users. Concurrent
// duplicate requests are not serialised here; the unique (user_id, friend_id) index is the guard.
type FriendshipService struct {
	friends  repositories.FriendRepository
	users    repositories.UserRepository
	notifier Notifier

	tombstones *Tombstones
}

func NewFriendshipService(friends repositories.FriendRepository, users repositories.UserRepository, notifier Notifier) *FriendshipService {
	return &FriendshipService{friends: friends, users: users, notifier: notifier}
}

// WithTombstones silences not-found results caused by either party having just been deleted.
func (s *FriendshipService) WithTombstones(t *Tombstones) *FriendshipService {
	s.tombstones = t
	return s
}

func (s *FriendshipService) afterDeletion(err *error, userIDs ...string) {
	*err = s.tombstones.suppress(*err, "friendships", userIDs...)
}

// Status reports the relationship from currentUserID's point of view.
func (s *FriendshipService) Status(ctx context.Context, targetUserID, currentUserID string) (models.FriendshipState, error) {
	edge, err := s.friends.FindBetween(ctx, currentUserID, targetUserID)
	if err != nil {
		return models.FriendshipState{}, err
	}
	return stateOf(edge, currentUserID), nil
}

func stateOf(edge *models.Friendship, currentUserID string) models.FriendshipState {
	if edge == nil {
		return models.FriendshipState{Status: models.FriendshipNone}
	}
	return models.FriendshipState{
		Status:       edge.Status,
		Direction:    edge.DirectionFor(currentUserID),
		FriendshipID: edge.ID,
	}
}

func (s *FriendshipService) SendRequest(ctx context.Context, fromUserID, toUserID string) (state models.FriendshipState, err error) {
	defer track("request", &err)
	defer s.afterDeletion(&err, fromUserID, toUserID)

	if fromUserID == toUserID {
		return state, ErrSelfRequest
	}
	if _, err := s.users.GetByID(ctx, toUserID); err != nil {
		return state, notFoundAs(err, "user")
	}

	edge, err := s.friends.FindBetween(ctx, fromUserID, toUserID)
	if err != nil {
		return state, err
	}

	if edge == nil {
		edge, err = s.friends.Create(ctx, fromUserID, toUserID, models.FriendshipPending)
	} else {
		switch edge.Status {
		case models.FriendshipPending:
			return state, ErrRequestExists
		case models.FriendshipAccepted:
			return state, ErrAlreadyFriends
		case models.FriendshipBlocked:
			return state, ErrBlocked
		default:
			edge, err = s.friends.Reopen(ctx, edge.ID, fromUserID, toUserID)
		}
	}
	if err != nil {
		return state, err
	}

	name := s.displayName(ctx, fromUserID)
	notify(ctx, s.notifier, toUserID, models.NotifyFriendRequest,
		"New friend request", name+" sent you a friend request",
		map[string]any{"friendship_id": edge.ID, "from_user_id": fromUserID})

	return stateOf(edge, fromUserID), nil
}

func (s *FriendshipService) Accept(ctx context.Context, actorID, otherUserID string) (state models.FriendshipState, err error) {
	defer track("accept", &err)
	defer s.afterDeletion(&err, actorID, otherUserID)

	edge, err := s.pendingIncoming(ctx, actorID, otherUserID)
	if err != nil {
		return state, err
	}
	return s.accept(ctx, actorID, edge)
}

// AcceptRejected lets a recipient change their mind about a request they rejected earlier.
// Only a rejected incoming edge qualifies; any other state is left untouched.
func (s *FriendshipService) AcceptRejected(ctx context.Context, actorID, otherUserID string) (state models.FriendshipState, err error) {
	defer track("accept_rejected", &err)
	defer s.afterDeletion(&err, actorID, otherUserID)

	edge, err := s.friends.FindBetween(ctx, actorID, otherUserID)
	if err != nil {
		return state, err
	}
	if edge == nil || edge.Status != models.FriendshipRejected || edge.DirectionFor(actorID) != models.DirectionIncoming {
		return state, ErrInvalidTransition
	}
	return s.accept(ctx, actorID, edge)
}

func (s *FriendshipService) accept(ctx context.Context, actorID string, edge *models.Friendship) (models.FriendshipState, error) {
	if err := s.friends.UpdateStatus(ctx, edge.ID, models.FriendshipAccepted); err != nil {
		return models.FriendshipState{}, err
	}
	edge.Status = models.FriendshipAccepted

	name := s.displayName(ctx, actorID)
	notify(ctx, s.notifier, edge.UserID, models.NotifyFriendRequestAccepted,
		"Friend request accepted", name+" accepted your friend request",
		map[string]any{"friendship_id": edge.ID, "friend_id": actorID})

	return stateOf(edge, actorID), nil
}

func (s *FriendshipService) Reject(ctx context.Context, actorID, otherUserID string) (state models.FriendshipState, err error) {
	defer track("reject", &err)
	defer s.afterDeletion(&err, actorID, otherUserID)

	edge, err := s.pendingIncoming(ctx, actorID, otherUserID)
	if err != nil {
		return state, err
	}
	if err := s.friends.UpdateStatus(ctx, edge.ID, models.FriendshipRejected); err != nil {
		return state, err
	}
	edge.Status = models.FriendshipRejected
	return stateOf(edge, actorID), nil
}

func (s *FriendshipService) Cancel(ctx context.Context, actorID, otherUserID string) (state models.FriendshipState, err error) {
	defer track("cancel", &err)
	defer s.afterDeletion(&err, actorID, otherUserID)

	edge, err := s.friends.FindBetween(ctx, actorID, otherUserID)
	if err != nil {
		return state, err
	}
	if edge == nil || edge.Status != models.FriendshipPending || edge.DirectionFor(actorID) != models.DirectionOutgoing {
		return state, ErrNoOutgoingRequest
	}
	if err := s.friends.Delete(ctx, edge.ID); err != nil {
		return state, err
	}
	return stateOf(nil, actorID), nil
}

func (s *FriendshipService) Remove(ctx context.Context, actorID, otherUserID string) (state models.FriendshipState, err error) {
	defer track("remove", &err)
	defer s.afterDeletion(&err, actorID, otherUserID)

	edge, err := s.friends.FindBetween(ctx, actorID, otherUserID)
	if err != nil {
		return state, err
	}
	if edge == nil || edge.Status != models.FriendshipAccepted {
		return state, ErrNotFriends
	}
	if err := s.friends.Delete(ctx, edge.ID); err != nil {
		return state, err
	}
	return stateOf(nil, actorID), nil
}

// Block replaces whatever edge exists with a single blocked edge owned by the actor.
func (s *FriendshipService) Block(ctx context.Context, actorID, otherUserID string) (state models.FriendshipState, err error) {
	defer track("block", &err)
	defer s.afterDeletion(&err, actorID, otherUserID)

	if actorID == otherUserID {
		return state, apperrors.Validation("cannot block yourself")
	}
	edge, err := s.friends.FindBetween(ctx, actorID, otherUserID)
	if err != nil {
		return state, err
	}
	if edge != nil && edge.Status == models.FriendshipBlocked && edge.UserID == actorID {
		return stateOf(edge, actorID), nil
	}
	if edge == nil {
		edge, err = s.friends.Create(ctx, actorID, otherUserID, models.FriendshipBlocked)
	} else {
		edge, err = s.friends.Replace(ctx, edge.ID, actorID, otherUserID, models.FriendshipBlocked)
	}
	if err != nil {
		return state, err
	}
	return stateOf(edge, actorID), nil
}

func (s *FriendshipService) ListFriends(ctx context.Context, userID string) ([]models.User, error) {
	ids, err := s.friends.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	friends := make([]models.User, 0, len(ids))
	for _, id := range ids {
		friend, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, notFoundAs(err, "friend")
		}
		friends = append(friends, *friend)
	}
	return friends, nil
}

type IncomingRequest struct {
	models.Friendship
	From models.User `json:"from"`
}

func (s *FriendshipService) ListIncoming(ctx context.Context, userID string) ([]IncomingRequest, error) {
	reqs, err := s.friends.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := make([]IncomingRequest, 0, len(reqs))
	for _, req := range reqs {
		sender, err := s.users.GetByID(ctx, req.UserID)
		if err != nil {
			return nil, notFoundAs(err, "requester")
		}
		resp = append(resp, IncomingRequest{Friendship: req, From: *sender})
	}
	return resp, nil
}

func (s *FriendshipService) pendingIncoming(ctx context.Context, actorID, otherUserID string) (*models.Friendship, error) {
	edge, err := s.friends.FindBetween(ctx, actorID, otherUserID)
	if err != nil {
		return nil, err
	}
	if edge == nil || edge.Status != models.FriendshipPending || edge.DirectionFor(actorID) != models.DirectionIncoming {
		return nil, ErrNoPendingRequest
	}
	return edge, nil
}

func (s *FriendshipService) displayName(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "Someone"
	}
	return user.DisplayName()
}

func track(action string, err *error) {
	status := metrics.StatusSuccess
	if *err != nil {
		status = metrics.StatusFailed
	}
	metrics.IncFriendshipTransition(action, status)
}
