// Package calendar is the RPC client for the remote calendar event store.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rendez/internal/models"
	"rendez/internal/observability"
)

// Gateway is the calendar event store's RPC contract. Every call may fail
// with an UPSTREAM_UNAVAILABLE error; lookups return (nil, nil) when the
// event does not exist.
type Gateway interface {
	CreateEvent(ctx context.Context, ownerID string, data models.EventData) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	UpdateEvent(ctx context.Context, id string, patch models.EventData) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) (*models.Event, error)
}

// httpGateway talks JSON over HTTP to the event store.
type httpGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway returns a Gateway for the event store at baseURL.
func NewHTTPGateway(baseURL string) Gateway {
	return &httpGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type createEventPayload struct {
	OwnerID string `json:"owner_id"`
	models.EventData
}

func (g *httpGateway) CreateEvent(ctx context.Context, ownerID string, data models.EventData) (*models.Event, error) {
	var event models.Event
	err := g.call(ctx, "createEvent", http.MethodPost, "/events", createEventPayload{OwnerID: ownerID, EventData: data}, &event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents returns every event in the store. Listing is the only
// granularity the upstream offers; per-owner filtering happens locally.
func (g *httpGateway) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := g.call(ctx, "listEvents", http.MethodGet, "/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (g *httpGateway) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := g.call(ctx, "getEvent", http.MethodGet, "/events/"+id, nil, &event)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (g *httpGateway) UpdateEvent(ctx context.Context, id string, patch models.EventData) (*models.Event, error) {
	var event models.Event
	err := g.call(ctx, "updateEvent", http.MethodPatch, "/events/"+id, patch, &event)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (g *httpGateway) DeleteEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := g.call(ctx, "deleteEvent", http.MethodDelete, "/events/"+id, nil, &event)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (g *httpGateway) call(ctx context.Context, operation, method, path string, payload, dest any) error {
	start := time.Now()
	defer func() {
		observability.CalendarGatewayLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return models.NewInternalError(err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return models.NewInternalError(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := g.client.Do(req)
	if err != nil {
		return models.NewUpstreamError("calendar service", err)
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return models.NewNotFoundError("Event")
	case res.StatusCode >= 400:
		return models.NewUpstreamError("calendar service",
			fmt.Errorf("%s %s: unexpected status %d", method, path, res.StatusCode))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return models.NewUpstreamError("calendar service", err)
	}
	return nil
}
