// Package grid builds the per-slot, per-machine availability matrix by
// layering authoritative bookings, maintenance blackouts, foreign drafts
// and the local draft over the day window in a fixed precedence order.
//
// Build is pure and idempotent given its inputs: independent input
// updates can be applied in any order and converge to the same grid.
package grid

import (
	"time"

	"laundro/pkg/model"
	"laundro/pkg/timeslot"
)

// Input is everything a grid render depends on.
type Input struct {
	Date     string
	Now      time.Time
	Machines []model.Machine
	Settings model.Settings

	Bookings    []model.Booking
	Maintenance []model.MaintenanceInterval
	Foreign     []model.TempReservation

	// Draft is the local user's own uncommitted selection, if any.
	Draft *model.TempReservation
}

// Grid is one rendered day.
type Grid struct {
	Date  string
	Slots []model.TimeSlot
}

// Build renders the day. Overlay order, later wins:
//  1. base availability from machine-enabled settings
//  2. authoritative bookings
//  3. maintenance blackouts (win over stale booking renders)
//  4. foreign temp reservations (shown over maintenance for "being
//     selected" feedback; see DESIGN.md for the known UX risk)
//  5. the local user's own draft
//  6. past-slot presentation flag (does not replace the semantic state)
func Build(in Input) Grid {
	spans := timeslot.DaySpans()
	slots := make([]model.TimeSlot, len(spans))

	for i, span := range spans {
		status := make(map[string]model.SlotStatus, len(in.Machines))
		for _, machine := range in.Machines {
			status[machine.ID] = cellStatus(in, machine.ID, span)
		}
		slots[i] = model.TimeSlot{
			StartTime: timeslot.ToClock(span.Start),
			EndTime:   timeslot.ToClock(span.End),
			Status:    status,
		}
	}

	return Grid{Date: in.Date, Slots: slots}
}

func cellStatus(in Input, machineID string, span timeslot.Span) model.SlotStatus {
	status := model.SlotStatus{State: model.SlotAvailable}

	if !in.Settings.Enabled(machineID) {
		status = model.SlotStatus{State: model.SlotMaintenance, By: "disabled"}
	}

	for _, b := range in.Bookings {
		if b.Machine != machineID || b.Date != in.Date || !b.Active() {
			continue
		}
		if clockOverlaps(span, b.StartTime, b.EndTime) {
			status = model.SlotStatus{State: model.SlotOccupied, By: b.User.Room}
		}
	}

	for _, m := range in.Maintenance {
		if m.Machine != machineID || m.Date != in.Date {
			continue
		}
		if clockOverlaps(span, m.StartTime, m.EndTime) {
			status = model.SlotStatus{State: model.SlotMaintenance, By: "maintenance"}
		}
	}

	for _, res := range in.Foreign {
		if reservationCovers(&res, machineID, in.Date, span) {
			status = model.SlotStatus{State: model.SlotTempReserved, By: res.UserName}
		}
	}

	if in.Draft != nil && reservationCovers(in.Draft, machineID, in.Date, span) {
		status = model.SlotStatus{State: model.SlotReserved, By: in.Draft.UserName}
	}

	if in.Settings.BlockPastSlots && timeslot.IsToday(in.Date, in.Now) {
		if span.End < timeslot.MinutesOfDay(in.Now) {
			status.Past = true
		}
	}

	return status
}

// reservationCovers reports whether a draft claims the given cell.
// Washer drafts claim their interval list on their machine and date;
// dryer drafts claim the wall-clock range of their running window.
func reservationCovers(res *model.TempReservation, machineID, date string, span timeslot.Span) bool {
	if res.Machine != machineID {
		return false
	}

	if res.Dryer() {
		if !timeslot.IsToday(date, res.StartTimestamp) {
			return false
		}
		window := timeslot.Span{
			Start: timeslot.MinutesOfDay(res.StartTimestamp),
			End:   timeslot.MinutesOfDay(res.EndTimestamp),
		}
		return timeslot.Overlaps(span, window)
	}

	if res.Date != date {
		return false
	}
	for _, iv := range res.Intervals {
		if clockOverlaps(span, iv.Start, iv.End) {
			return true
		}
	}
	return false
}

func clockOverlaps(span timeslot.Span, startClock, endClock string) bool {
	start, err := timeslot.ToMinutes(startClock)
	if err != nil {
		return false
	}
	end, err := timeslot.ToMinutes(endClock)
	if err != nil {
		return false
	}
	return timeslot.Overlaps(span, timeslot.Span{Start: start, End: end})
}

// Clickable implements the interactivity rule: a slot can join a draft
// only when no other machine is being drafted, the cell is genuinely
// free, and the slot is not past-blocked.
func (g *Grid) Clickable(slotIndex int, machineID, draftMachine string) bool {
	if slotIndex < 0 || slotIndex >= len(g.Slots) {
		return false
	}
	if draftMachine != "" && draftMachine != machineID {
		return false
	}

	status, ok := g.Slots[slotIndex].Status[machineID]
	if !ok {
		return false
	}
	if status.Past {
		return false
	}
	switch status.State {
	case model.SlotAvailable, model.SlotReserved:
		return true
	default:
		return false
	}
}

// FindBooking resolves the authoritative booking behind an occupied cell
// for the read-only detail lookup: machine and date match, and the slot
// start falls inside the booking's range.
func FindBooking(bookings []model.Booking, machineID, date, slotStart string) *model.Booking {
	start, err := timeslot.ToMinutes(slotStart)
	if err != nil {
		return nil
	}

	for i := range bookings {
		b := &bookings[i]
		if b.Machine != machineID || b.Date != date || !b.Active() {
			continue
		}
		bStart, err1 := timeslot.ToMinutes(b.StartTime)
		bEnd, err2 := timeslot.ToMinutes(b.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if start >= bStart && start < bEnd {
			return b
		}
	}
	return nil
}
