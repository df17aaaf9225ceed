package repository

import (
	"context"
	"testing"
	"time"

	"rendez/internal/kv"
	"rendez/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (FriendRepository, kv.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := kv.NewRedisStore(client)
	return NewFriendRepository(store), store
}

func pendingRequest(id, from, to string) *models.FriendRequest {
	return &models.FriendRequest{
		ID:         id,
		FromUserID: from,
		ToUserID:   to,
		Status:     models.RequestStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestCreateAndGetRequest(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	req := pendingRequest("r1", "u1", "u2")
	require.NoError(t, repo.CreateRequest(ctx, req))

	got, err := repo.GetRequest(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.FromUserID)
	assert.Equal(t, "u2", got.ToUserID)
	assert.Equal(t, models.RequestStatusPending, got.Status)

	absent, err := repo.GetRequest(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestPendingRequestBetween(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateRequest(ctx, pendingRequest("r1", "u1", "u2")))

	got, err := repo.PendingRequestBetween(ctx, "u1", "u2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r1", got.ID)

	// Directionality matters.
	reverse, err := repo.PendingRequestBetween(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Nil(t, reverse)
}

func TestResolvedRequestsFilteredFromIndex(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	req := pendingRequest("r1", "u1", "u2")
	require.NoError(t, repo.CreateRequest(ctx, req))

	req.Status = models.RequestStatusRejected
	require.NoError(t, repo.SaveRequest(ctx, req))

	// The index entry survives; reads filter it out by status.
	pending, err := repo.ListPendingRequests(ctx, "u2", models.DirectionReceived)
	require.NoError(t, err)
	assert.Empty(t, pending)

	between, err := repo.PendingRequestBetween(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Nil(t, between)
}

func TestListPendingRequestsByDirection(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateRequest(ctx, pendingRequest("r1", "u1", "u2")))
	require.NoError(t, repo.CreateRequest(ctx, pendingRequest("r2", "u3", "u1")))

	sent, err := repo.ListPendingRequests(ctx, "u1", models.DirectionSent)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "r1", sent[0].ID)

	received, err := repo.ListPendingRequests(ctx, "u1", models.DirectionReceived)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "r2", received[0].ID)
}

func TestFriendshipSymmetry(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	friendship := &models.Friendship{
		ID:        "f1",
		UserID1:   "u2",
		UserID2:   "u1",
		Status:    models.RequestStatusAccepted,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateFriendship(ctx, friendship))

	ab, err := repo.FriendshipBetween(ctx, "u1", "u2")
	require.NoError(t, err)
	require.NotNil(t, ab)

	ba, err := repo.FriendshipBetween(ctx, "u2", "u1")
	require.NoError(t, err)
	require.NotNil(t, ba)

	// Both orderings resolve to the same canonical record.
	assert.Equal(t, ab.ID, ba.ID)
	assert.Equal(t, ab.CreatedAt, ba.CreatedAt)

	forU1, err := repo.ListFriendships(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, forU1, 1)
	assert.Equal(t, "f1", forU1[0].ID)

	forU2, err := repo.ListFriendships(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, forU2, 1)
	assert.Equal(t, "f1", forU2[0].ID)
}

func TestCreateFriendshipIdempotentKey(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	first := &models.Friendship{ID: "f1", UserID1: "u1", UserID2: "u2", Status: models.RequestStatusAccepted}
	require.NoError(t, repo.CreateFriendship(ctx, first))

	// Writing the same pair again overwrites the canonical record rather
	// than accumulating a second one.
	keys, err := store.ListKeys(ctx, "friendship:")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestEventRequestRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	req := &models.CalendarEventRequest{
		ID:         "e1",
		FromUserID: "u1",
		ToUserID:   "u2",
		EventData: models.EventData{
			Title: "Lunch",
			Date:  time.Date(2024, 12, 25, 12, 0, 0, 0, time.UTC),
		},
		Status:    models.RequestStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateEventRequest(ctx, req))

	got, err := repo.GetEventRequest(ctx, "e1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Lunch", got.EventData.Title)

	absent, err := repo.GetEventRequest(ctx, "e2")
	require.NoError(t, err)
	assert.Nil(t, absent)
}
