package models

import "time"

// RequestStatus represents the lifecycle state of a friend or event request.
type RequestStatus string

const (
	// RequestStatusPending indicates a request awaiting a response.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusAccepted indicates an accepted request.
	RequestStatusAccepted RequestStatus = "accepted"
	// RequestStatusRejected indicates a rejected request.
	RequestStatusRejected RequestStatus = "rejected"
)

// RequestDirection distinguishes requests a user sent from requests they received.
type RequestDirection string

const (
	// DirectionSent selects requests originated by the user.
	DirectionSent RequestDirection = "sent"
	// DirectionReceived selects requests addressed to the user.
	DirectionReceived RequestDirection = "received"
)

// FriendRequest represents a directed friend request between two users.
// Its status moves pending -> accepted|rejected exactly once; records are
// never deleted.
type FriendRequest struct {
	ID         string        `json:"id"`
	FromUserID string        `json:"from_user_id"`
	ToUserID   string        `json:"to_user_id"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Friendship represents the symmetric accepted relation over an unordered
// pair of users. Exactly one record exists per pair, addressed by the
// normalized pair key; per-user index entries point at it from both sides.
type Friendship struct {
	ID        string        `json:"id"`
	UserID1   string        `json:"user_id_1"`
	UserID2   string        `json:"user_id_2"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// PartnerOf returns the other member of the pair, or "" if userID is not a member.
func (f *Friendship) PartnerOf(userID string) string {
	switch userID {
	case f.UserID1:
		return f.UserID2
	case f.UserID2:
		return f.UserID1
	}
	return ""
}

// NormalizePair returns the two ids in lexicographic order so that both
// orderings of a pair map to the same key.
func NormalizePair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// EventData carries the caller-supplied fields of a proposed calendar event.
type EventData struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// CalendarEventRequest is a proposed shared calendar event, created only
// after the friendship and availability checks pass. It has no respond
// flow; its lifecycle ends at creation.
type CalendarEventRequest struct {
	ID         string        `json:"id"`
	FromUserID string        `json:"from_user_id"`
	ToUserID   string        `json:"to_user_id"`
	EventData  EventData     `json:"event_data"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// SendRequestResult is the outcome of sending a friend request. Either
// Request is set (normal path) or Friendship is set with AutoAccepted true
// (mutual-race path).
type SendRequestResult struct {
	Request      *FriendRequest `json:"request,omitempty"`
	Friendship   *Friendship    `json:"friendship,omitempty"`
	AutoAccepted bool           `json:"auto_accepted"`
}

// RespondResult is the outcome of responding to a friend request.
// Friendship is nil when the request was rejected.
type RespondResult struct {
	Accepted   bool        `json:"accepted"`
	Friendship *Friendship `json:"friendship,omitempty"`
}

// PendingRequestView is a pending friend request enriched with the resolved
// identity of the counterpart (the other party, never the reader).
type PendingRequestView struct {
	FriendRequest
	User *Identity `json:"user,omitempty"`
}

// SearchResult describes a discovered user and what the requester may do next.
type SearchResult struct {
	User               Identity `json:"user"`
	HasSentRequest     bool     `json:"has_sent_request"`
	HasReceivedRequest bool     `json:"has_received_request"`
	CanSendRequest     bool     `json:"can_send_request"`
}

// EventConflict identifies an existing event that collides with a requested date.
type EventConflict struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

// AvailabilityResult reports whether a friend is free on a calendar day,
// with the colliding events when not.
type AvailabilityResult struct {
	FriendID          string          `json:"friend_id"`
	Email             string          `json:"email"`
	Date              time.Time       `json:"date"`
	IsAvailable       bool            `json:"is_available"`
	ConflictingEvents []EventConflict `json:"conflicting_events"`
}

// EventRequestResult is the outcome of requesting a calendar event. When the
// friend is unavailable, Request is nil and Suggestion is set; this is a
// normal negative outcome, not an error.
type EventRequestResult struct {
	Request      *CalendarEventRequest `json:"request,omitempty"`
	Availability *AvailabilityResult   `json:"availability"`
	Suggestion   string                `json:"suggestion,omitempty"`
}
