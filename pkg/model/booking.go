package model

import (
	"time"
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
)

type BookingUser struct {
	ID   string `json:"id" bson:"id" validate:"required"`
	Name string `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Room string `json:"room" bson:"room" validate:"required,min=1,max=20"`
	// Approved is granted out of band; unapproved users can browse and
	// draft but not submit.
	Approved bool `json:"approved" bson:"-"`
}

// Booking is the authoritative reservation entity. The coordination core
// treats it as read-only input; only the backend write path mutates it.
type Booking struct {
	ID              string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Machine         string        `json:"machine" bson:"machine" validate:"required"`
	Date            string        `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string        `json:"start_time" bson:"start_time" validate:"required,clock"`
	EndTime         string        `json:"end_time" bson:"end_time" validate:"required,clock"`
	DurationMinutes int           `json:"duration_minutes,omitempty" bson:"duration_minutes,omitempty" validate:"omitempty,min=1,max=599"`
	User            BookingUser   `json:"user" bson:"user" validate:"required"`
	Status          BookingStatus `json:"status" bson:"status" validate:"required,oneof=active cancelled"`
	CancelledBy     string        `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
	CancelReason    string        `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Active reports whether the booking still blocks its time range.
func (b *Booking) Active() bool {
	return b.Status == BookingActive
}

// BookingGroup is a maximal run of time-adjacent bookings for the same
// user, machine and date, projected for the admin view. OriginalIDs maps
// the group back to the individual bookings for bulk cancel/delete.
// Never persisted; recomputed on every relevant state change.
type BookingGroup struct {
	Booking        `bson:",inline"`
	FinalEndTime   string   `json:"final_end_time"`
	GroupedMinutes int      `json:"grouped_minutes"`
	OriginalIDs    []string `json:"original_ids"`
}
