// Package service implements the friendship coordination engine.
package service

import (
	"context"
	"log/slog"
	"time"

	"rendez/internal/calendar"
	"rendez/internal/directory"
	"rendez/internal/middleware"
	"rendez/internal/models"
	"rendez/internal/observability"
	"rendez/internal/repository"

	"github.com/google/uuid"
)

// FriendService owns the friend-request lifecycle, the symmetric friendship
// relation, and calendar-event gating. It is stateless between calls; all
// durable state lives in the key-value store behind the repository. Every
// check-then-write sequence runs under the per-pair lock so concurrent
// callers cannot interleave between the check and the write.
type FriendService struct {
	friendRepo repository.FriendRepository
	directory  directory.Directory
	calendar   calendar.Gateway
	locks      *pairLocks
}

// NewFriendService returns a new FriendService.
func NewFriendService(friendRepo repository.FriendRepository, dir directory.Directory, cal calendar.Gateway) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		directory:  dir,
		calendar:   cal,
		locks:      newPairLocks(),
	}
}

// resolveByEmail looks up an identity by email, failing with NOT_FOUND when
// it does not resolve.
func (s *FriendService) resolveByEmail(ctx context.Context, email string) (*models.Identity, error) {
	identity, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, models.NewNotFoundError("User")
	}
	return identity, nil
}

// SendFriendRequest sends a friend request to the user behind friendEmail.
// When both sides have requested each other, the race resolves into a single
// friendship and both requests end accepted.
func (s *FriendService) SendFriendRequest(ctx context.Context, requesterID, friendEmail string) (result *models.SendRequestResult, err error) {
	ctx, finish := observability.TrackEngineOp(ctx, "send_friend_request")
	defer func() { finish(err) }()

	friend, err := s.resolveByEmail(ctx, friendEmail)
	if err != nil {
		return nil, err
	}
	if friend.ID == requesterID {
		return nil, models.NewInvalidOperationError("Cannot send friend request to yourself")
	}

	unlock := s.locks.Lock(requesterID, friend.ID)
	defer unlock()

	existing, err := s.friendRepo.FriendshipBetween(ctx, requesterID, friend.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == models.RequestStatusAccepted {
		return nil, models.NewConflictError("Already friends")
	}

	sent, err := s.friendRepo.PendingRequestBetween(ctx, requesterID, friend.ID)
	if err != nil {
		return nil, err
	}
	if sent != nil {
		return nil, models.NewConflictError("Friend request already sent")
	}

	reverse, err := s.friendRepo.PendingRequestBetween(ctx, friend.ID, requesterID)
	if err != nil {
		return nil, err
	}
	if reverse != nil {
		// Second read of the forward direction. The pair lock rules this
		// out within a process; the re-check still matters when another
		// process wrote to the shared store between the two reads.
		forward, err := s.friendRepo.PendingRequestBetween(ctx, requesterID, friend.ID)
		if err != nil {
			return nil, err
		}
		if forward != nil {
			friendship, err := s.acceptMutual(ctx, reverse, forward)
			if err != nil {
				return nil, err
			}
			return &models.SendRequestResult{Friendship: friendship, AutoAccepted: true}, nil
		}
		return nil, models.NewConflictError("You already have a pending friend request from this user. Please accept or decline it first.")
	}

	request := &models.FriendRequest{
		ID:         uuid.NewString(),
		FromUserID: requesterID,
		ToUserID:   friend.ID,
		Status:     models.RequestStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.friendRepo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	return &models.SendRequestResult{Request: request}, nil
}

// acceptMutual resolves the mutual-request race: one friendship is created
// and both requests are marked accepted. Called with the pair lock held.
func (s *FriendService) acceptMutual(ctx context.Context, reverse, forward *models.FriendRequest) (*models.Friendship, error) {
	friendship := &models.Friendship{
		ID:        uuid.NewString(),
		UserID1:   forward.FromUserID,
		UserID2:   forward.ToUserID,
		Status:    models.RequestStatusAccepted,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.friendRepo.CreateFriendship(ctx, friendship); err != nil {
		return nil, err
	}

	reverse.Status = models.RequestStatusAccepted
	if err := s.friendRepo.SaveRequest(ctx, reverse); err != nil {
		return nil, err
	}
	forward.Status = models.RequestStatusAccepted
	if err := s.friendRepo.SaveRequest(ctx, forward); err != nil {
		return nil, err
	}

	observability.MutualAccepts.Inc()
	middleware.Logger.InfoContext(ctx, "mutual friend request auto-accepted",
		slog.String("friendship_id", friendship.ID),
		slog.String("user_id_1", friendship.UserID1),
		slog.String("user_id_2", friendship.UserID2),
	)
	return friendship, nil
}

// RespondToFriendRequest accepts or rejects a pending friend request.
// Only the addressee may respond, and only once.
func (s *FriendService) RespondToFriendRequest(ctx context.Context, responderID, requestID string, accept bool) (result *models.RespondResult, err error) {
	ctx, finish := observability.TrackEngineOp(ctx, "respond_friend_request")
	defer func() { finish(err) }()

	request, err := s.friendRepo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, models.NewNotFoundError("Friend request")
	}
	if request.ToUserID != responderID {
		return nil, models.NewForbiddenError("Not authorized to respond to this request")
	}

	unlock := s.locks.Lock(request.FromUserID, request.ToUserID)
	defer unlock()

	// Re-read under the lock; a concurrent response or the mutual-race
	// path may have resolved the request already.
	request, err = s.friendRepo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, models.NewNotFoundError("Friend request")
	}
	if request.Status != models.RequestStatusPending {
		return nil, models.NewInvalidOperationError("Request already processed")
	}

	if !accept {
		request.Status = models.RequestStatusRejected
		if err := s.friendRepo.SaveRequest(ctx, request); err != nil {
			return nil, err
		}
		return &models.RespondResult{Accepted: false}, nil
	}

	friendship := &models.Friendship{
		ID:        uuid.NewString(),
		UserID1:   request.ToUserID,
		UserID2:   request.FromUserID,
		Status:    models.RequestStatusAccepted,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.friendRepo.CreateFriendship(ctx, friendship); err != nil {
		return nil, err
	}

	request.Status = models.RequestStatusAccepted
	if err := s.friendRepo.SaveRequest(ctx, request); err != nil {
		return nil, err
	}

	return &models.RespondResult{Accepted: true, Friendship: friendship}, nil
}

// GetFriends returns the resolved identities of the user's accepted friends.
// Partners whose identity no longer resolves are dropped, not surfaced as
// errors.
func (s *FriendService) GetFriends(ctx context.Context, userID string) (friends []models.Identity, err error) {
	ctx, finish := observability.TrackEngineOp(ctx, "get_friends")
	defer func() { finish(err) }()

	friendships, err := s.friendRepo.ListFriendships(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends = make([]models.Identity, 0, len(friendships))
	for i := range friendships {
		partnerID := friendships[i].PartnerOf(userID)
		if partnerID == "" {
			continue
		}
		partner, err := s.directory.FindByID(ctx, partnerID)
		if err != nil {
			return nil, err
		}
		if partner == nil {
			continue
		}
		friends = append(friends, *partner)
	}
	return friends, nil
}

// GetFriendRequests returns the user's pending requests in the given
// direction, each enriched with the counterpart's identity.
func (s *FriendService) GetFriendRequests(ctx context.Context, userID string, direction models.RequestDirection) (views []models.PendingRequestView, err error) {
	ctx, finish := observability.TrackEngineOp(ctx, "get_friend_requests")
	defer func() { finish(err) }()

	requests, err := s.friendRepo.ListPendingRequests(ctx, userID, direction)
	if err != nil {
		return nil, err
	}

	views = make([]models.PendingRequestView, 0, len(requests))
	for i := range requests {
		counterpartID := requests[i].FromUserID
		if direction == models.DirectionSent {
			counterpartID = requests[i].ToUserID
		}
		counterpart, err := s.directory.FindByID(ctx, counterpartID)
		if err != nil {
			return nil, err
		}
		views = append(views, models.PendingRequestView{
			FriendRequest: requests[i],
			User:          counterpart,
		})
	}
	return views, nil
}

// SearchUserByEmail resolves a candidate friend by email and reports what
// the requester may do next. Existing friends are rejected; search is a
// discovery path, not a friends-list substitute.
func (s *FriendService) SearchUserByEmail(ctx context.Context, requesterID, email string) (result *models.SearchResult, err error) {
	ctx, finish := observability.TrackEngineOp(ctx, "search_user")
	defer func() { finish(err) }()

	user, err := s.resolveByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.ID == requesterID {
		return nil, models.NewInvalidOperationError("Cannot search for yourself")
	}

	friendship, err := s.friendRepo.FriendshipBetween(ctx, requesterID, user.ID)
	if err != nil {
		return nil, err
	}
	if friendship != nil && friendship.Status == models.RequestStatusAccepted {
		return nil, models.NewConflictError("User is already your friend")
	}

	sent, err := s.friendRepo.PendingRequestBetween(ctx, requesterID, user.ID)
	if err != nil {
		return nil, err
	}
	received, err := s.friendRepo.PendingRequestBetween(ctx, user.ID, requesterID)
	if err != nil {
		return nil, err
	}

	hasSent := sent != nil
	hasReceived := received != nil
	return &models.SearchResult{
		User:               *user,
		HasSentRequest:     hasSent,
		HasReceivedRequest: hasReceived,
		CanSendRequest:     !hasSent && !hasReceived,
	}, nil
}
