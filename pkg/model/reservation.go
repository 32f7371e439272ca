package model

import (
	"time"
)

// TempReservation is a user's ephemeral, broadcast-only draft claim.
// It lives solely in the memory of connected clients: created on
// selection, replaced on every change, deleted on cancel/submit, and
// rebuilt on connect via the sync handshake. A user holds at most one.
//
// Washer drafts carry Intervals; dryer drafts carry DurationMinutes with
// concrete start/end timestamps. Exactly one of the two shapes is set.
type TempReservation struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
	Room     string `json:"room,omitempty"`
	Machine  string `json:"machine"`
	Date     string `json:"date"`

	Intervals []Interval `json:"intervals,omitempty"`

	DurationMinutes int       `json:"duration_minutes,omitempty"`
	StartTimestamp  time.Time `json:"start_timestamp,omitempty"`
	EndTimestamp    time.Time `json:"end_timestamp,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Dryer reports whether this is a duration-based dryer draft.
func (r *TempReservation) Dryer() bool {
	return r.DurationMinutes > 0 && len(r.Intervals) == 0
}
