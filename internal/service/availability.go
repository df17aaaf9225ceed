package service

import (
	"context"
	"time"

	"rendez/internal/models"
	"rendez/internal/observability"

	"github.com/google/uuid"
)

// requireFriendship fails with INVALID_OPERATION unless an accepted
// friendship exists between the two users.
func (s *FriendService) requireFriendship(ctx context.Context, userID, friendID string) error {
	friendship, err := s.friendRepo.FriendshipBetween(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if friendship == nil || friendship.Status != models.RequestStatusAccepted {
		return models.NewInvalidOperationError("Users are not friends")
	}
	return nil
}

// CheckAvailability reports whether the friend behind friendEmail is free on
// the requested date. Conflicts are detected at UTC calendar-day
// granularity, not full-timestamp equality.
func (s *FriendService) CheckAvailability(ctx context.Context, userID, friendEmail string, date time.Time) (result *models.AvailabilityResult, err error) {
	ctx, finish := observability.TrackEngineOp(ctx, "check_availability")
	defer func() { finish(err) }()

	friend, err := s.resolveByEmail(ctx, friendEmail)
	if err != nil {
		return nil, err
	}
	if err := s.requireFriendship(ctx, userID, friend.ID); err != nil {
		return nil, err
	}

	// The upstream only lists all events; filter to the friend locally.
	events, err := s.calendar.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	conflicts := make([]models.EventConflict, 0)
	for i := range events {
		if events[i].OwnerID != friend.ID {
			continue
		}
		if models.SameCalendarDay(events[i].Date, date) {
			conflicts = append(conflicts, models.EventConflict{
				ID:    events[i].ID,
				Title: events[i].Title,
				Date:  events[i].Date,
			})
		}
	}

	return &models.AvailabilityResult{
		FriendID:          friend.ID,
		Email:             friendEmail,
		Date:              date,
		IsAvailable:       len(conflicts) == 0,
		ConflictingEvents: conflicts,
	}, nil
}

// RequestCalendarEvent proposes a shared calendar event to a friend. When
// the friend is unavailable on the requested day, no request is persisted
// and the result carries the availability plus a suggestion; that outcome
// is not an error.
func (s *FriendService) RequestCalendarEvent(ctx context.Context, requesterID, friendEmail string, data models.EventData) (result *models.EventRequestResult, err error) {
	ctx, finish := observability.TrackEngineOp(ctx, "request_calendar_event")
	defer func() { finish(err) }()

	friend, err := s.resolveByEmail(ctx, friendEmail)
	if err != nil {
		return nil, err
	}
	if err := s.requireFriendship(ctx, requesterID, friend.ID); err != nil {
		return nil, err
	}

	availability, err := s.CheckAvailability(ctx, requesterID, friendEmail, data.Date)
	if err != nil {
		return nil, err
	}
	if !availability.IsAvailable {
		return &models.EventRequestResult{
			Availability: availability,
			Suggestion:   "Please choose a different date",
		}, nil
	}

	request := &models.CalendarEventRequest{
		ID:         uuid.NewString(),
		FromUserID: requesterID,
		ToUserID:   friend.ID,
		EventData:  data,
		Status:     models.RequestStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.friendRepo.CreateEventRequest(ctx, request); err != nil {
		return nil, err
	}

	return &models.EventRequestResult{
		Request:      request,
		Availability: availability,
	}, nil
}
