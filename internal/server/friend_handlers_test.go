package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rendez/internal/calendar"
	"rendez/internal/config"
	"rendez/internal/kv"
	"rendez/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatewayStub serves a fixed event list for availability checks.
type gatewayStub struct {
	events []models.Event
}

func (g *gatewayStub) CreateEvent(_ context.Context, ownerID string, data models.EventData) (*models.Event, error) {
	event := models.Event{ID: fmt.Sprintf("ev%d", len(g.events)+1), OwnerID: ownerID, Title: data.Title, Description: data.Description, Date: data.Date}
	g.events = append(g.events, event)
	return &event, nil
}

func (g *gatewayStub) ListEvents(_ context.Context) ([]models.Event, error) {
	return g.events, nil
}

func (g *gatewayStub) GetEvent(_ context.Context, id string) (*models.Event, error) {
	for i := range g.events {
		if g.events[i].ID == id {
			return &g.events[i], nil
		}
	}
	return nil, nil
}

func (g *gatewayStub) UpdateEvent(_ context.Context, id string, patch models.EventData) (*models.Event, error) {
	for i := range g.events {
		if g.events[i].ID == id {
			g.events[i].Title = patch.Title
			g.events[i].Description = patch.Description
			g.events[i].Date = patch.Date
			return &g.events[i], nil
		}
	}
	return nil, nil
}

func (g *gatewayStub) DeleteEvent(_ context.Context, id string) (*models.Event, error) {
	for i := range g.events {
		if g.events[i].ID == id {
			event := g.events[i]
			g.events = append(g.events[:i], g.events[i+1:]...)
			return &event, nil
		}
	}
	return nil, nil
}

var _ calendar.Gateway = (*gatewayStub)(nil)

type testApp struct {
	app     *fiber.App
	store   kv.Store
	gateway *gatewayStub
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := kv.NewRedisStore(client)
	gateway := &gatewayStub{}
	srv := NewServerWithDeps(&config.Config{Port: "0"}, store, gateway)

	app := fiber.New()
	srv.SetupRoutes(app)
	return &testApp{app: app, store: store, gateway: gateway}
}

func (ta *testApp) request(t *testing.T, method, path, userID string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	res, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return res
}

func decode(t *testing.T, res *http.Response, dest any) {
	t.Helper()
	defer func() { _ = res.Body.Close() }()
	require.NoError(t, json.NewDecoder(res.Body).Decode(dest))
}

func (ta *testApp) createIdentity(t *testing.T, email, name string) string {
	t.Helper()
	res := ta.request(t, http.MethodPost, "/api/identities", "", map[string]string{
		"email": email,
		"name":  name,
	})
	require.Equal(t, 201, res.StatusCode)

	var identity models.Identity
	decode(t, res, &identity)
	require.NotEmpty(t, identity.ID)
	return identity.ID
}

func TestFriendRequestFlow(t *testing.T) {
	ta := setupApp(t)

	u1 := ta.createIdentity(t, "alice@example.com", "Alice")
	u2 := ta.createIdentity(t, "friend@example.com", "Bob")

	var requestID string

	t.Run("SendFriendRequest", func(t *testing.T) {
		res := ta.request(t, http.MethodPost, "/api/friends/requests", u1,
			map[string]string{"email": "friend@example.com"})
		require.Equal(t, 201, res.StatusCode)

		var resp struct {
			Request models.FriendRequest `json:"request"`
		}
		decode(t, res, &resp)
		assert.Equal(t, u1, resp.Request.FromUserID)
		assert.Equal(t, u2, resp.Request.ToUserID)
		assert.Equal(t, models.RequestStatusPending, resp.Request.Status)
		requestID = resp.Request.ID
	})

	t.Run("DuplicateSendConflicts", func(t *testing.T) {
		res := ta.request(t, http.MethodPost, "/api/friends/requests", u1,
			map[string]string{"email": "friend@example.com"})
		defer func() { _ = res.Body.Close() }()
		assert.Equal(t, 409, res.StatusCode)
	})

	t.Run("GetReceivedRequests", func(t *testing.T) {
		res := ta.request(t, http.MethodGet, "/api/friends/requests?direction=received", u2, nil)
		require.Equal(t, 200, res.StatusCode)

		var resp struct {
			Requests []models.PendingRequestView `json:"requests"`
		}
		decode(t, res, &resp)
		require.Len(t, resp.Requests, 1)
		require.NotNil(t, resp.Requests[0].User)
		assert.Equal(t, u1, resp.Requests[0].User.ID)
	})

	t.Run("AcceptFriendRequest", func(t *testing.T) {
		res := ta.request(t, http.MethodPost, "/api/friends/requests/"+requestID+"/accept", u2, nil)
		require.Equal(t, 200, res.StatusCode)

		var resp struct {
			Friendship models.Friendship `json:"friendship"`
		}
		decode(t, res, &resp)
		assert.Equal(t, models.RequestStatusAccepted, resp.Friendship.Status)
	})

	t.Run("BothFriendListsContainEachOther", func(t *testing.T) {
		for user, friend := range map[string]string{u1: u2, u2: u1} {
			res := ta.request(t, http.MethodGet, "/api/friends/", user, nil)
			require.Equal(t, 200, res.StatusCode)

			var resp struct {
				Friends []models.Identity `json:"friends"`
			}
			decode(t, res, &resp)
			require.Len(t, resp.Friends, 1)
			assert.Equal(t, friend, resp.Friends[0].ID)
		}
	})
}

func TestRejectFriendRequestEndpoint(t *testing.T) {
	ta := setupApp(t)

	u1 := ta.createIdentity(t, "alice@example.com", "Alice")
	u3 := ta.createIdentity(t, "carol@example.com", "Carol")

	res := ta.request(t, http.MethodPost, "/api/friends/requests", u1,
		map[string]string{"email": "carol@example.com"})
	require.Equal(t, 201, res.StatusCode)

	var resp struct {
		Request models.FriendRequest `json:"request"`
	}
	decode(t, res, &resp)

	res = ta.request(t, http.MethodPost, "/api/friends/requests/"+resp.Request.ID+"/reject", u3, nil)
	defer func() { _ = res.Body.Close() }()
	assert.Equal(t, 200, res.StatusCode)

	// A second response is rejected.
	res = ta.request(t, http.MethodPost, "/api/friends/requests/"+resp.Request.ID+"/accept", u3, nil)
	defer func() { _ = res.Body.Close() }()
	assert.Equal(t, 400, res.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	ta := setupApp(t)

	u1 := ta.createIdentity(t, "alice@example.com", "Alice")
	ta.createIdentity(t, "friend@example.com", "Bob")

	res := ta.request(t, http.MethodGet, "/api/friends/search?email=friend@example.com", u1, nil)
	require.Equal(t, 200, res.StatusCode)

	var result models.SearchResult
	decode(t, res, &result)
	assert.True(t, result.CanSendRequest)

	res = ta.request(t, http.MethodGet, "/api/friends/search?email=nobody@example.com", u1, nil)
	defer func() { _ = res.Body.Close() }()
	assert.Equal(t, 404, res.StatusCode)
}

func TestEventRequestUnavailableScenario(t *testing.T) {
	ta := setupApp(t)

	u1 := ta.createIdentity(t, "alice@example.com", "Alice")
	u2 := ta.createIdentity(t, "friend@example.com", "Bob")

	// Befriend through the API.
	res := ta.request(t, http.MethodPost, "/api/friends/requests", u1,
		map[string]string{"email": "friend@example.com"})
	require.Equal(t, 201, res.StatusCode)
	var sent struct {
		Request models.FriendRequest `json:"request"`
	}
	decode(t, res, &sent)
	res = ta.request(t, http.MethodPost, "/api/friends/requests/"+sent.Request.ID+"/accept", u2, nil)
	require.Equal(t, 200, res.StatusCode)
	_ = res.Body.Close()

	// u2 already has an event on Dec 25.
	date := time.Date(2024, 12, 25, 9, 0, 0, 0, time.UTC)
	ta.gateway.events = []models.Event{{ID: "ev1", OwnerID: u2, Title: "Busy", Date: date}}

	res = ta.request(t, http.MethodPost, "/api/friends/events", u1, map[string]any{
		"email": "friend@example.com",
		"title": "Lunch",
		"date":  date.Format(time.RFC3339),
	})
	require.Equal(t, 200, res.StatusCode)

	var resp struct {
		Availability models.AvailabilityResult `json:"availability"`
		Suggestion   string                    `json:"suggestion"`
	}
	decode(t, res, &resp)
	assert.False(t, resp.Availability.IsAvailable)
	assert.NotEmpty(t, resp.Suggestion)

	// No event request was persisted.
	keys, err := ta.store.ListKeys(context.Background(), "eventrequest:")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRequireUser(t *testing.T) {
	ta := setupApp(t)

	res := ta.request(t, http.MethodGet, "/api/friends/", "", nil)
	defer func() { _ = res.Body.Close() }()
	assert.Equal(t, 403, res.StatusCode)

	res = ta.request(t, http.MethodGet, "/api/friends/", "ghost", nil)
	defer func() { _ = res.Body.Close() }()
	assert.Equal(t, 403, res.StatusCode)
}

func TestNotePassthrough(t *testing.T) {
	ta := setupApp(t)

	u1 := ta.createIdentity(t, "alice@example.com", "Alice")
	u2 := ta.createIdentity(t, "friend@example.com", "Bob")

	date := time.Date(2025, 1, 10, 14, 0, 0, 0, time.UTC)
	res := ta.request(t, http.MethodPost, "/api/notes", u1, map[string]any{
		"title": "Dentist",
		"date":  date.Format(time.RFC3339),
	})
	require.Equal(t, 201, res.StatusCode)

	var event models.Event
	decode(t, res, &event)
	assert.Equal(t, u1, event.OwnerID)

	// Listing is scoped to the caller.
	res = ta.request(t, http.MethodGet, "/api/notes/", u2, nil)
	require.Equal(t, 200, res.StatusCode)
	var listing struct {
		Events []models.Event `json:"events"`
	}
	decode(t, res, &listing)
	assert.Empty(t, listing.Events)

	// Another user cannot read it.
	res = ta.request(t, http.MethodGet, "/api/notes/"+event.ID, u2, nil)
	defer func() { _ = res.Body.Close() }()
	assert.Equal(t, 403, res.StatusCode)

	// The owner can delete it.
	res = ta.request(t, http.MethodDelete, "/api/notes/"+event.ID, u1, nil)
	defer func() { _ = res.Body.Close() }()
	assert.Equal(t, 204, res.StatusCode)
}
