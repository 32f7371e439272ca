// Package timeslot holds the pure time arithmetic shared by the grid
// builder, the dryer scheduler and the booking services: clock/minute
// conversion, day-window slot generation and interval overlap checks.
//
// Times are "HH:MM" wall-clock strings at the boundary and
// minutes-from-midnight ints internally. Dates are "2006-01-02" strings.
package timeslot

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the canonical date format for all booking dates.
	DateLayout = "2006-01-02"

	// DayStartMinutes is 08:00, the first bookable minute of a day.
	DayStartMinutes = 8 * 60
	// DayEndMinutes is 22:00, the end of the bookable window.
	DayEndMinutes = 22 * 60
	// SlotMinutes is the fixed slot granularity.
	SlotMinutes = 30
	// SlotsPerDay is (22:00-08:00)/30m = 28 slots.
	SlotsPerDay = (DayEndMinutes - DayStartMinutes) / SlotMinutes
)

// Span is a half-open [Start,End) interval in minutes from midnight.
type Span struct {
	Start int
	End   int
}

// ToMinutes parses an "HH:MM" clock string into minutes from midnight.
func ToMinutes(clock string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", clock, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", clock)
	}
	return h*60 + m, nil
}

// ToClock renders minutes from midnight as an "HH:MM" string.
func ToClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MustMinutes is ToMinutes for trusted literals. It panics on bad input
// and is meant for constants and tests only.
func MustMinutes(clock string) int {
	m, err := ToMinutes(clock)
	if err != nil {
		panic(err)
	}
	return m
}

// Overlaps reports whether two half-open minute spans intersect.
func Overlaps(a, b Span) bool {
	return a.Start < b.End && a.End > b.Start
}

// Contains reports whether the span fully covers the target span.
func Contains(outer, inner Span) bool {
	return outer.Start <= inner.Start && outer.End >= inner.End
}

// Adjacent reports whether b starts exactly where a ends or vice versa.
func Adjacent(a, b Span) bool {
	return a.End == b.Start || b.End == a.Start
}

// DaySpans generates the fixed day window as ordered 30-minute spans.
// Slots are never persisted; callers regenerate them per render.
func DaySpans() []Span {
	spans := make([]Span, 0, SlotsPerDay)
	for start := DayStartMinutes; start < DayEndMinutes; start += SlotMinutes {
		spans = append(spans, Span{Start: start, End: start + SlotMinutes})
	}
	return spans
}

// SlotIndex returns the day-window index of the slot starting at the given
// minute, or -1 when the minute is outside the window or off-grid.
func SlotIndex(startMinutes int) int {
	if startMinutes < DayStartMinutes || startMinutes >= DayEndMinutes {
		return -1
	}
	if (startMinutes-DayStartMinutes)%SlotMinutes != 0 {
		return -1
	}
	return (startMinutes - DayStartMinutes) / SlotMinutes
}

// Date renders a time as a canonical date string.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// IsToday reports whether the date string names the same calendar day as now.
func IsToday(date string, now time.Time) bool {
	return date == now.Format(DateLayout)
}

// MinutesOfDay returns the wall-clock minute of the given time.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// At combines a date string and minutes-from-midnight into a concrete time
// in the supplied location. The zero location defaults to UTC.
func At(date string, minutes int, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return day.Add(time.Duration(minutes) * time.Minute), nil
}
