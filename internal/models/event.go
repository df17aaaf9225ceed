package models

import "time"

// Event is a calendar event as served by the remote event store.
type Event struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// SameCalendarDay reports whether two timestamps fall on the same UTC
// calendar day, irrespective of time-of-day.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
