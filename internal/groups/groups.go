// Package groups merges time-adjacent bookings for the same user,
// machine and date into contiguous blocks for the admin view, using the
// same strict-adjacency rule the draft enforces on selection.
//
// Group membership is never persisted; it is recomputed on demand.
package groups

import (
	"sort"

	"laundro/pkg/model"
	"laundro/pkg/timeslot"
)

// Group folds the booking list into contiguous blocks. A booking joins
// the current block iff its date, machine and user match and its start
// equals the block's running end (strict time adjacency).
func Group(bookings []model.Booking) []model.BookingGroup {
	if len(bookings) == 0 {
		return nil
	}

	sorted := make([]model.Booking, len(bookings))
	copy(sorted, bookings)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Machine != b.Machine {
			return a.Machine < b.Machine
		}
		if a.User.ID != b.User.ID {
			return a.User.ID < b.User.ID
		}
		return startMinutes(a) < startMinutes(b)
	})

	var groups []model.BookingGroup
	current := newGroup(sorted[0])

	for _, b := range sorted[1:] {
		if sameBlock(current, b) {
			current.FinalEndTime = b.EndTime
			current.GroupedMinutes += durationMinutes(b)
			current.OriginalIDs = append(current.OriginalIDs, b.ID)
			continue
		}
		groups = append(groups, current)
		current = newGroup(b)
	}
	groups = append(groups, current)

	return groups
}

// BlockFor recovers the contiguous block containing the target booking,
// for bulk cancel/delete. Only active bookings sharing the target's
// date, machine and user are candidates; cancelled ones never extend a
// block.
func BlockFor(target model.Booking, all []model.Booking) model.BookingGroup {
	candidates := make([]model.Booking, 0, len(all))
	for _, b := range all {
		if !b.Active() {
			continue
		}
		if b.Date != target.Date || b.Machine != target.Machine || b.User.ID != target.User.ID {
			continue
		}
		candidates = append(candidates, b)
	}

	for _, g := range Group(candidates) {
		for _, id := range g.OriginalIDs {
			if id == target.ID {
				return g
			}
		}
	}

	// The target itself may be cancelled already; it is its own block.
	return newGroup(target)
}

func newGroup(b model.Booking) model.BookingGroup {
	return model.BookingGroup{
		Booking:        b,
		FinalEndTime:   b.EndTime,
		GroupedMinutes: durationMinutes(b),
		OriginalIDs:    []string{b.ID},
	}
}

func sameBlock(g model.BookingGroup, b model.Booking) bool {
	return b.Date == g.Date &&
		b.Machine == g.Machine &&
		b.User.ID == g.User.ID &&
		b.StartTime == g.FinalEndTime
}

func startMinutes(b model.Booking) int {
	m, err := timeslot.ToMinutes(b.StartTime)
	if err != nil {
		return 0
	}
	return m
}

func durationMinutes(b model.Booking) int {
	if b.DurationMinutes > 0 {
		return b.DurationMinutes
	}
	start, err1 := timeslot.ToMinutes(b.StartTime)
	end, err2 := timeslot.ToMinutes(b.EndTime)
	if err1 != nil || err2 != nil || end < start {
		return 0
	}
	return end - start
}
