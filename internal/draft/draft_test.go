package draft

import (
	"errors"
	"testing"
	"time"

	"laundro/internal/locks"
	"laundro/pkg/model"
	"laundro/pkg/timeslot"
)

const testDate = "2026-08-31"

func span(startClock string) timeslot.Span {
	start := timeslot.MustMinutes(startClock)
	return timeslot.Span{Start: start, End: start + timeslot.SlotMinutes}
}

func toggle(t *testing.T, d *Draft, clock string) {
	t.Helper()
	if err := d.Toggle("washer-1", testDate, span(clock), nil); err != nil {
		t.Fatalf("toggle %s: %v", clock, err)
	}
}

func TestToggleStartsDraft(t *testing.T) {
	d := New()

	toggle(t, d, "10:00")

	if d.Empty() {
		t.Fatal("expected draft to hold a slot")
	}
	if d.Machine() != "washer-1" || d.Date() != testDate {
		t.Errorf("draft anchored to (%s, %s)", d.Machine(), d.Date())
	}
}

func TestToggleExtendsAtBothEnds(t *testing.T) {
	d := New()

	toggle(t, d, "10:00")
	toggle(t, d, "10:30") // above
	toggle(t, d, "09:30") // below

	r, ok := d.Range()
	if !ok {
		t.Fatal("expected a range")
	}
	want := timeslot.Span{Start: timeslot.MustMinutes("09:30"), End: timeslot.MustMinutes("11:00")}
	if r != want {
		t.Errorf("range = %+v, want %+v", r, want)
	}
	if d.Len() != 3 {
		t.Errorf("expected 3 slots, got %d", d.Len())
	}
}

func TestToggleRejectsGap(t *testing.T) {
	d := New()

	toggle(t, d, "10:00")
	err := d.Toggle("washer-1", testDate, span("11:30"), nil)
	if !errors.Is(err, ErrNotContiguous) {
		t.Fatalf("expected ErrNotContiguous, got %v", err)
	}
	if d.Len() != 1 {
		t.Errorf("rejected toggle must not change the draft, got %d slots", d.Len())
	}

	// Rejection is idempotent: the same click fails the same way.
	if err := d.Toggle("washer-1", testDate, span("11:30"), nil); !errors.Is(err, ErrNotContiguous) {
		t.Errorf("expected repeat rejection, got %v", err)
	}
}

func TestToggleRejectsOtherMachine(t *testing.T) {
	d := New()

	toggle(t, d, "10:00")

	if err := d.Toggle("washer-2", testDate, span("10:30"), nil); !errors.Is(err, ErrOtherMachine) {
		t.Errorf("expected ErrOtherMachine, got %v", err)
	}
	if err := d.Toggle("washer-1", "2026-09-01", span("10:30"), nil); !errors.Is(err, ErrOtherMachine) {
		t.Errorf("expected ErrOtherMachine for a different date, got %v", err)
	}
}

func TestToggleTruncates(t *testing.T) {
	d := New()

	// Select 10:00, extend down to build 09:00-11:00 in mixed order.
	toggle(t, d, "10:00")
	toggle(t, d, "10:30")
	toggle(t, d, "09:30")
	toggle(t, d, "09:00")

	// Reselecting 10:30 drops it and everything selected after it.
	toggle(t, d, "10:30")

	slots := d.Slots()
	if len(slots) != 1 {
		t.Fatalf("expected 1 remaining slot, got %d", len(slots))
	}
	if slots[0] != span("10:00") {
		t.Errorf("expected 10:00 to survive, got %+v", slots[0])
	}

	// Truncating the first slot empties and releases the draft.
	toggle(t, d, "10:00")
	if !d.Empty() {
		t.Fatal("expected empty draft")
	}
	if d.Machine() != "" {
		t.Error("empty draft must release the machine")
	}
	if err := d.Toggle("washer-2", testDate, span("12:00"), nil); err != nil {
		t.Errorf("released draft must accept another machine, got %v", err)
	}
}

// Every prefix of the selection order must itself be a contiguous run,
// so truncation at any point leaves a valid draft.
func TestSelectionOrderPrefixContiguous(t *testing.T) {
	d := New()

	for _, clock := range []string{"12:00", "12:30", "11:30", "13:00", "11:00"} {
		toggle(t, d, clock)
	}

	slots := d.Slots()
	for n := 1; n <= len(slots); n++ {
		prefix := slots[:n]
		min, max := prefix[0].Start, prefix[0].End
		for _, s := range prefix[1:] {
			if s.Start < min {
				min = s.Start
			}
			if s.End > max {
				max = s.End
			}
		}
		if max-min != n*timeslot.SlotMinutes {
			t.Errorf("prefix of %d slots spans %d minutes, want %d",
				n, max-min, n*timeslot.SlotMinutes)
		}
	}
}

func TestToggleForeignConflict(t *testing.T) {
	foreign := locks.NewTable("me")
	res := model.TempReservation{
		UserID:  "alice",
		Machine: "washer-1",
		Date:    testDate,
		Intervals: []model.Interval{
			{Start: "11:00", End: "11:30"},
		},
	}
	if _, err := foreign.Apply(locks.NewDraftUpdate(res)); err != nil {
		t.Fatalf("seed foreign table: %v", err)
	}

	d := New()

	if err := d.Toggle("washer-1", testDate, span("11:00"), foreign); !errors.Is(err, ErrForeignConflict) {
		t.Fatalf("expected ErrForeignConflict on first slot, got %v", err)
	}
	if !d.Empty() {
		t.Error("rejected first slot must leave the draft empty")
	}

	// Extending into the foreign hold is rejected too, and the draft is
	// untouched.
	if err := d.Toggle("washer-1", testDate, span("10:30"), foreign); err != nil {
		t.Fatalf("free slot: %v", err)
	}
	if err := d.Toggle("washer-1", testDate, span("11:00"), foreign); !errors.Is(err, ErrForeignConflict) {
		t.Fatalf("expected ErrForeignConflict on extension, got %v", err)
	}
	if d.Len() != 1 {
		t.Errorf("expected draft unchanged at 1 slot, got %d", d.Len())
	}
}

func TestClear(t *testing.T) {
	d := New()
	toggle(t, d, "10:00")
	toggle(t, d, "10:30")

	d.Clear()

	if !d.Empty() || d.Machine() != "" || d.Date() != "" {
		t.Error("Clear must fully reset the draft")
	}
}

func TestReservation(t *testing.T) {
	d := New()
	user := model.BookingUser{ID: "me", Name: "Me", Room: "204"}
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	if d.Reservation(user, now) != nil {
		t.Error("empty draft must project to nil")
	}

	toggle(t, d, "10:30")
	toggle(t, d, "10:00")

	res := d.Reservation(user, now)
	if res == nil {
		t.Fatal("expected a reservation")
	}
	if res.UserID != "me" || res.Machine != "washer-1" || res.Date != testDate {
		t.Errorf("reservation identity mismatch: %+v", res)
	}
	if res.Dryer() {
		t.Error("washer reservation must not classify as dryer")
	}
	want := []model.Interval{
		{Start: "10:30", End: "11:00"},
		{Start: "10:00", End: "10:30"},
	}
	if len(res.Intervals) != len(want) {
		t.Fatalf("expected %d intervals, got %d", len(want), len(res.Intervals))
	}
	for i, iv := range want {
		if res.Intervals[i] != iv {
			t.Errorf("interval %d = %+v, want %+v (selection order)", i, res.Intervals[i], iv)
		}
	}
	if !res.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", res.UpdatedAt, now)
	}
}
