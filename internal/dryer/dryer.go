// Package dryer schedules the one continuous-duration machine. Unlike
// washers the dryer is not slot-quantized: a draft is a duration that
// starts "now" on today's date, with the end clipped by maintenance
// blackouts and the end of the day window.
package dryer

import (
	"errors"
	"fmt"
	"time"

	"laundro/pkg/model"
	"laundro/pkg/timeslot"
)

var (
	ErrZeroDuration       = errors.New("duration must be greater than zero")
	ErrTooManyHours       = errors.New("hours exceed the maximum")
	ErrMinutesOutOfRange  = errors.New("minutes must be between 0 and 59")
	ErrMaintenanceClipped = errors.New("runtime collides with a maintenance window")
	ErrPastDayEnd         = errors.New("runtime exceeds the end of the day")
	ErrNotToday           = errors.New("dryer runs can only start today")

	ErrDisabled         = errors.New("dryer is disabled")
	ErrUnderMaintenance = errors.New("dryer is under maintenance right now")
	ErrOccupied         = errors.New("dryer already has an active booking")
	ErrForeignHeld      = errors.New("dryer is being selected by another user")
)

// Window is a computed dryer run: a concrete start and the end after
// clipping.
type Window struct {
	Start time.Time
	End   time.Time
}

// DurationMinutes is the clipped run length.
func (w Window) DurationMinutes() int {
	return int(w.End.Sub(w.Start) / time.Minute)
}

// Compute derives the run window for the given duration starting now,
// clipping the end against (a) the start of the earliest overlapping
// maintenance window and (b) the end of the day window. The returned
// error carries the specific validation reason; the window is still
// populated on clip errors so callers can show the clipped end.
func Compute(hours, minutes, maxHours int, machineID string, now time.Time, maintenance []model.MaintenanceInterval) (Window, error) {
	if minutes < 0 || minutes > 59 {
		return Window{}, ErrMinutesOutOfRange
	}
	if hours < 0 || hours > maxHours {
		return Window{}, ErrTooManyHours
	}
	total := hours*60 + minutes
	if total == 0 {
		return Window{}, ErrZeroDuration
	}

	start := now
	end := start.Add(time.Duration(total) * time.Minute)
	w := Window{Start: start, End: end}

	today := timeslot.Date(now)
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		Add(time.Duration(timeslot.DayEndMinutes) * time.Minute)

	// Earliest maintenance window overlapping the run wins the clip.
	var clip *model.MaintenanceInterval
	var clipStart time.Time
	for i := range maintenance {
		m := &maintenance[i]
		if m.Machine != machineID || m.Date != today {
			continue
		}
		mStart, err1 := timeslot.At(m.Date, mustMinutes(m.StartTime), now.Location())
		mEnd, err2 := timeslot.At(m.Date, mustMinutes(m.EndTime), now.Location())
		if err1 != nil || err2 != nil {
			continue
		}
		if mEnd.After(start) && mStart.Before(w.End) {
			if clip == nil || mStart.Before(clipStart) {
				clip = m
				clipStart = mStart
			}
		}
	}

	if clip != nil && clipStart.Before(w.End) {
		if !clipStart.After(start) {
			w.End = start
		} else {
			w.End = clipStart
		}
		return w, fmt.Errorf("%w (%s-%s)", ErrMaintenanceClipped, clip.StartTime, clip.EndTime)
	}

	if w.End.After(dayEnd) {
		w.End = dayEnd
		return w, ErrPastDayEnd
	}

	return w, nil
}

func mustMinutes(clock string) int {
	m, err := timeslot.ToMinutes(clock)
	if err != nil {
		return 0
	}
	return m
}

// Selectable gates picking the dryer at all: it must be enabled, not
// currently blacked out, not occupied by an active booking, and not
// locked by another user's draft.
func Selectable(
	enabled bool,
	bookings []model.Booking,
	maintenance []model.MaintenanceInterval,
	foreignHolder *model.TempReservation,
	machineID string,
	now time.Time,
) error {
	if !enabled {
		return ErrDisabled
	}

	today := timeslot.Date(now)
	nowMin := timeslot.MinutesOfDay(now)

	for _, m := range maintenance {
		if m.Machine != machineID || m.Date != today {
			continue
		}
		start, err1 := timeslot.ToMinutes(m.StartTime)
		end, err2 := timeslot.ToMinutes(m.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if nowMin >= start && nowMin < end {
			return ErrUnderMaintenance
		}
	}

	if ActiveBooking(bookings, machineID, now) != nil {
		return ErrOccupied
	}

	if foreignHolder != nil {
		return ErrForeignHeld
	}

	return nil
}

// ActiveBooking returns the dryer booking currently running, if any.
func ActiveBooking(bookings []model.Booking, machineID string, now time.Time) *model.Booking {
	today := timeslot.Date(now)
	nowMin := timeslot.MinutesOfDay(now)

	for i := range bookings {
		b := &bookings[i]
		if b.Machine != machineID || b.Date != today || !b.Active() {
			continue
		}
		start, err1 := timeslot.ToMinutes(b.StartTime)
		end, err2 := timeslot.ToMinutes(b.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if nowMin >= start && nowMin < end {
			return b
		}
	}
	return nil
}
