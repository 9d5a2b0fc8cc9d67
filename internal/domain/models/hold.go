package models

import "time"

// Hold is an in-progress reservation for one or more seats on one trip.
// The expiry is chosen by the server and shared by every seat selected
// afterwards in the same booking session.
type Hold struct {
	Token          string    `json:"hold_token"`
	TripID         int64     `json:"trip_id"`
	Seats          []string  `json:"seats"`
	IdempotencyKey string    `json:"-"`
	ExpiresAt      time.Time `json:"hold_expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h Hold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
