// Package draft holds the washer selection state machine: an ordered,
// contiguous run of slots for exactly one machine, built click by click
// and torn down by truncation, cancellation or submission.
package draft

import (
	"errors"
	"time"

	"laundro/internal/locks"
	"laundro/pkg/model"
	"laundro/pkg/timeslot"
)

var (
	// ErrNotContiguous rejects a slot that touches neither end of the run.
	ErrNotContiguous = errors.New("selection must be consecutive")
	// ErrForeignConflict rejects a slot another user is currently drafting.
	ErrForeignConflict = errors.New("slot is being selected by another user")
	// ErrOtherMachine rejects a click on a machine other than the drafted one.
	ErrOtherMachine = errors.New("another machine is already selected")
)

// Draft is a single user's in-progress washer selection. The slots slice
// is kept in selection order; because every extension happens at an end
// of the run, any prefix of the selection order is itself contiguous.
type Draft struct {
	machine string
	date    string
	slots   []timeslot.Span
}

func New() *Draft {
	return &Draft{}
}

func (d *Draft) Empty() bool {
	return len(d.slots) == 0
}

func (d *Draft) Machine() string {
	return d.machine
}

func (d *Draft) Date() string {
	return d.date
}

// Len is the number of selected slots.
func (d *Draft) Len() int {
	return len(d.slots)
}

// Slots returns the selection in click order.
func (d *Draft) Slots() []timeslot.Span {
	out := make([]timeslot.Span, len(d.slots))
	copy(out, d.slots)
	return out
}

// Range returns the covered [min-start, max-end) span.
func (d *Draft) Range() (timeslot.Span, bool) {
	if len(d.slots) == 0 {
		return timeslot.Span{}, false
	}
	r := d.slots[0]
	for _, s := range d.slots[1:] {
		if s.Start < r.Start {
			r.Start = s.Start
		}
		if s.End > r.End {
			r.End = s.End
		}
	}
	return r, true
}

// Toggle applies one slot click. Selecting an already-selected slot
// truncates the run at that slot; selecting a slot adjacent to either
// end extends it after re-validating the full new range against foreign
// drafts; anything else is rejected with no state change.
func (d *Draft) Toggle(machineID, date string, span timeslot.Span, foreign *locks.Table) error {
	if !d.Empty() && (machineID != d.machine || date != d.date) {
		return ErrOtherMachine
	}

	if i := d.indexOf(span); i >= 0 {
		// Drop the clicked slot and everything selected after it.
		d.slots = d.slots[:i]
		if len(d.slots) == 0 {
			d.machine = ""
			d.date = ""
		}
		return nil
	}

	if d.Empty() {
		if foreign != nil && foreign.SpanConflict(machineID, date, span) != nil {
			return ErrForeignConflict
		}
		d.machine = machineID
		d.date = date
		d.slots = append(d.slots, span)
		return nil
	}

	current, _ := d.Range()
	if !timeslot.Adjacent(current, span) {
		return ErrNotContiguous
	}

	candidate := current
	if span.Start < candidate.Start {
		candidate.Start = span.Start
	}
	if span.End > candidate.End {
		candidate.End = span.End
	}
	if foreign != nil && foreign.SpanConflict(machineID, date, candidate) != nil {
		return ErrForeignConflict
	}

	d.slots = append(d.slots, span)
	return nil
}

// Clear resets to the empty state, releasing the machine lock.
func (d *Draft) Clear() {
	d.machine = ""
	d.date = ""
	d.slots = nil
}

// Reservation projects the draft into the wire shape broadcast to peers.
// Returns nil when the draft is empty.
func (d *Draft) Reservation(user model.BookingUser, now time.Time) *model.TempReservation {
	if d.Empty() {
		return nil
	}

	intervals := make([]model.Interval, len(d.slots))
	for i, s := range d.slots {
		intervals[i] = model.Interval{
			Start: timeslot.ToClock(s.Start),
			End:   timeslot.ToClock(s.End),
		}
	}

	return &model.TempReservation{
		UserID:    user.ID,
		UserName:  user.Name,
		Room:      user.Room,
		Machine:   d.machine,
		Date:      d.date,
		Intervals: intervals,
		UpdatedAt: now,
	}
}

func (d *Draft) indexOf(span timeslot.Span) int {
	for i, s := range d.slots {
		if s == span {
			return i
		}
	}
	return -1
}
