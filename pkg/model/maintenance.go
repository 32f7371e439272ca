package model

import "time"

// MaintenanceInterval is an authoritative blackout window during which a
// machine is unavailable regardless of bookings.
type MaintenanceInterval struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Machine   string    `json:"machine" bson:"machine" validate:"required"`
	Date      string    `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	StartTime string    `json:"start_time" bson:"start_time" validate:"required,clock"`
	EndTime   string    `json:"end_time" bson:"end_time" validate:"required,clock"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
