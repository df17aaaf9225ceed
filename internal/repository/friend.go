// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"fmt"

	"rendez/internal/kv"
	"rendez/internal/models"
)

// Key layout. The friendship record is canonical: one record per pair under
// the normalized key, with one index entry per participant pointing at it.
// Request index entries are append-only; resolved entries are filtered at
// read time by status.
const (
	requestPrefix      = "friendrequest:"
	friendshipPrefix   = "friendship:"
	userFriendsPrefix  = "userfriends:"
	userRequestsPrefix = "userrequests:"
	eventRequestPrefix = "eventrequest:"
)

// FriendRepository defines the persistence surface for friend requests,
// friendships, and calendar event requests.
type FriendRepository interface {
	CreateRequest(ctx context.Context, req *models.FriendRequest) error
	GetRequest(ctx context.Context, id string) (*models.FriendRequest, error)
	SaveRequest(ctx context.Context, req *models.FriendRequest) error
	PendingRequestBetween(ctx context.Context, fromUserID, toUserID string) (*models.FriendRequest, error)
	ListPendingRequests(ctx context.Context, userID string, direction models.RequestDirection) ([]models.FriendRequest, error)
	CreateFriendship(ctx context.Context, friendship *models.Friendship) error
	FriendshipBetween(ctx context.Context, userID1, userID2 string) (*models.Friendship, error)
	ListFriendships(ctx context.Context, userID string) ([]models.Friendship, error)
	CreateEventRequest(ctx context.Context, req *models.CalendarEventRequest) error
	GetEventRequest(ctx context.Context, id string) (*models.CalendarEventRequest, error)
}

// kvFriendRepository implements FriendRepository over a key-value store.
type kvFriendRepository struct {
	store kv.Store
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(store kv.Store) FriendRepository {
	return &kvFriendRepository{store: store}
}

func requestKey(id string) string {
	return requestPrefix + id
}

func friendshipKey(userID1, userID2 string) string {
	a, b := models.NormalizePair(userID1, userID2)
	return fmt.Sprintf("%s%s:%s", friendshipPrefix, a, b)
}

func userFriendsKey(userID, partnerID string) string {
	a, b := models.NormalizePair(userID, partnerID)
	return fmt.Sprintf("%s%s:%s:%s", userFriendsPrefix, userID, a, b)
}

func userRequestsKey(userID string, direction models.RequestDirection, requestID string) string {
	return fmt.Sprintf("%s%s:%s:%s", userRequestsPrefix, userID, direction, requestID)
}

// indexEntry is the value stored under secondary index keys.
type indexEntry struct {
	RequestID string `json:"request_id,omitempty"`
	PairKey   string `json:"pair_key,omitempty"`
}

func (r *kvFriendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	if err := kv.SetJSON(ctx, r.store, requestKey(req.ID), req); err != nil {
		return err
	}

	// Index entries for both sides so neither listing needs a full scan.
	sent := userRequestsKey(req.FromUserID, models.DirectionSent, req.ID)
	if err := kv.SetJSON(ctx, r.store, sent, indexEntry{RequestID: req.ID}); err != nil {
		return err
	}
	received := userRequestsKey(req.ToUserID, models.DirectionReceived, req.ID)
	return kv.SetJSON(ctx, r.store, received, indexEntry{RequestID: req.ID})
}

func (r *kvFriendRepository) GetRequest(ctx context.Context, id string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	found, err := kv.GetJSON(ctx, r.store, requestKey(id), &req)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &req, nil
}

func (r *kvFriendRepository) SaveRequest(ctx context.Context, req *models.FriendRequest) error {
	return kv.SetJSON(ctx, r.store, requestKey(req.ID), req)
}

// PendingRequestBetween looks up the pending request from fromUserID to
// toUserID through the sender's index, or nil if none exists.
func (r *kvFriendRepository) PendingRequestBetween(ctx context.Context, fromUserID, toUserID string) (*models.FriendRequest, error) {
	requests, err := r.ListPendingRequests(ctx, fromUserID, models.DirectionSent)
	if err != nil {
		return nil, err
	}
	for i := range requests {
		if requests[i].ToUserID == toUserID {
			return &requests[i], nil
		}
	}
	return nil, nil
}

func (r *kvFriendRepository) ListPendingRequests(ctx context.Context, userID string, direction models.RequestDirection) ([]models.FriendRequest, error) {
	prefix := fmt.Sprintf("%s%s:%s:", userRequestsPrefix, userID, direction)
	keys, err := r.store.ListKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	requests := make([]models.FriendRequest, 0, len(keys))
	for _, key := range keys {
		var entry indexEntry
		found, err := kv.GetJSON(ctx, r.store, key, &entry)
		if err != nil {
			return nil, err
		}
		if !found || entry.RequestID == "" {
			continue
		}

		req, err := r.GetRequest(ctx, entry.RequestID)
		if err != nil {
			return nil, err
		}
		// Stale index entries for resolved requests are expected.
		if req == nil || req.Status != models.RequestStatusPending {
			continue
		}
		requests = append(requests, *req)
	}
	return requests, nil
}

// CreateFriendship writes the canonical pair record and one index entry per
// participant. Symmetry holds by construction: both sides resolve to the
// single record under the normalized key.
func (r *kvFriendRepository) CreateFriendship(ctx context.Context, friendship *models.Friendship) error {
	pairKey := friendshipKey(friendship.UserID1, friendship.UserID2)
	if err := kv.SetJSON(ctx, r.store, pairKey, friendship); err != nil {
		return err
	}

	entry := indexEntry{PairKey: pairKey}
	if err := kv.SetJSON(ctx, r.store, userFriendsKey(friendship.UserID1, friendship.UserID2), entry); err != nil {
		return err
	}
	return kv.SetJSON(ctx, r.store, userFriendsKey(friendship.UserID2, friendship.UserID1), entry)
}

func (r *kvFriendRepository) FriendshipBetween(ctx context.Context, userID1, userID2 string) (*models.Friendship, error) {
	var friendship models.Friendship
	found, err := kv.GetJSON(ctx, r.store, friendshipKey(userID1, userID2), &friendship)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &friendship, nil
}

func (r *kvFriendRepository) ListFriendships(ctx context.Context, userID string) ([]models.Friendship, error) {
	prefix := fmt.Sprintf("%s%s:", userFriendsPrefix, userID)
	keys, err := r.store.ListKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	friendships := make([]models.Friendship, 0, len(keys))
	for _, key := range keys {
		var entry indexEntry
		found, err := kv.GetJSON(ctx, r.store, key, &entry)
		if err != nil {
			return nil, err
		}
		if !found || entry.PairKey == "" {
			continue
		}

		var friendship models.Friendship
		found, err = kv.GetJSON(ctx, r.store, entry.PairKey, &friendship)
		if err != nil {
			return nil, err
		}
		if !found || friendship.Status != models.RequestStatusAccepted {
			continue
		}
		friendships = append(friendships, friendship)
	}
	return friendships, nil
}

func (r *kvFriendRepository) CreateEventRequest(ctx context.Context, req *models.CalendarEventRequest) error {
	return kv.SetJSON(ctx, r.store, eventRequestPrefix+req.ID, req)
}

func (r *kvFriendRepository) GetEventRequest(ctx context.Context, id string) (*models.CalendarEventRequest, error) {
	var req models.CalendarEventRequest
	found, err := kv.GetJSON(ctx, r.store, eventRequestPrefix+id, &req)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &req, nil
}
