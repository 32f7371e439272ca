package grid

import (
	"testing"
	"time"

	"laundro/pkg/model"
	"laundro/pkg/timeslot"
)

const testDate = "2026-08-31"

func testMachines() []model.Machine {
	return []model.Machine{
		{ID: "washer-1", Kind: model.MachineWasher, Label: "Washer 1"},
		{ID: "washer-2", Kind: model.MachineWasher, Label: "Washer 2"},
		{ID: "dryer", Kind: model.MachineDryer, Label: "Dryer"},
	}
}

func baseInput() Input {
	return Input{
		Date:     testDate,
		Now:      time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		Machines: testMachines(),
		Settings: model.Settings{},
	}
}

func statusAt(t *testing.T, g Grid, clock, machineID string) model.SlotStatus {
	t.Helper()
	start, err := timeslot.ToMinutes(clock)
	if err != nil {
		t.Fatalf("bad clock %q: %v", clock, err)
	}
	idx := timeslot.SlotIndex(start)
	if idx < 0 || idx >= len(g.Slots) {
		t.Fatalf("clock %q outside the day window", clock)
	}
	status, ok := g.Slots[idx].Status[machineID]
	if !ok {
		t.Fatalf("no status for machine %q at %s", machineID, clock)
	}
	return status
}

func TestBuildShape(t *testing.T) {
	g := Build(baseInput())

	if g.Date != testDate {
		t.Errorf("expected date %q, got %q", testDate, g.Date)
	}
	if len(g.Slots) != timeslot.SlotsPerDay {
		t.Fatalf("expected %d slots, got %d", timeslot.SlotsPerDay, len(g.Slots))
	}
	if g.Slots[0].StartTime != "08:00" || g.Slots[len(g.Slots)-1].EndTime != "22:00" {
		t.Errorf("day window mismatch: %s .. %s",
			g.Slots[0].StartTime, g.Slots[len(g.Slots)-1].EndTime)
	}
	for mid, status := range g.Slots[0].Status {
		if status.State != model.SlotAvailable {
			t.Errorf("machine %s: expected available base state, got %s", mid, status.State)
		}
	}
}

func TestBuildOverlayPrecedence(t *testing.T) {
	booking := model.Booking{
		ID:      "b1",
		Machine: "washer-1",
		Date:    testDate,
		User:    model.BookingUser{ID: "alice", Name: "Alice", Room: "101"},
		Status:  model.BookingActive,
	}
	maintenance := model.MaintenanceInterval{
		ID:      "m1",
		Machine: "washer-1",
		Date:    testDate,
	}
	foreign := model.TempReservation{
		UserID:   "bob",
		UserName: "Bob",
		Machine:  "washer-1",
		Date:     testDate,
	}
	draft := model.TempReservation{
		UserID:   "me",
		UserName: "Me",
		Machine:  "washer-1",
		Date:     testDate,
	}

	span := func(start, end string) (model.Booking, model.MaintenanceInterval, model.TempReservation, model.TempReservation) {
		b := booking
		b.StartTime, b.EndTime = start, end
		m := maintenance
		m.StartTime, m.EndTime = start, end
		f := foreign
		f.Intervals = []model.Interval{{Start: start, End: end}}
		d := draft
		d.Intervals = []model.Interval{{Start: start, End: end}}
		return b, m, f, d
	}

	t.Run("booking over base", func(t *testing.T) {
		in := baseInput()
		b, _, _, _ := span("10:00", "10:30")
		in.Bookings = []model.Booking{b}

		status := statusAt(t, Build(in), "10:00", "washer-1")
		if status.State != model.SlotOccupied {
			t.Errorf("expected occupied, got %s", status.State)
		}
		if status.By != "101" {
			t.Errorf("occupied cell should carry the room, got %q", status.By)
		}
	})

	t.Run("cancelled booking does not occupy", func(t *testing.T) {
		in := baseInput()
		b, _, _, _ := span("10:00", "10:30")
		b.Status = model.BookingCancelled
		in.Bookings = []model.Booking{b}

		if status := statusAt(t, Build(in), "10:00", "washer-1"); status.State != model.SlotAvailable {
			t.Errorf("expected available, got %s", status.State)
		}
	})

	t.Run("maintenance over booking", func(t *testing.T) {
		in := baseInput()
		b, m, _, _ := span("10:00", "10:30")
		in.Bookings = []model.Booking{b}
		in.Maintenance = []model.MaintenanceInterval{m}

		if status := statusAt(t, Build(in), "10:00", "washer-1"); status.State != model.SlotMaintenance {
			t.Errorf("expected maintenance, got %s", status.State)
		}
	})

	t.Run("foreign draft over maintenance", func(t *testing.T) {
		in := baseInput()
		_, m, f, _ := span("10:00", "10:30")
		in.Maintenance = []model.MaintenanceInterval{m}
		in.Foreign = []model.TempReservation{f}

		status := statusAt(t, Build(in), "10:00", "washer-1")
		if status.State != model.SlotTempReserved {
			t.Errorf("expected temp_reserved, got %s", status.State)
		}
		if status.By != "Bob" {
			t.Errorf("temp cell should carry the drafter's name, got %q", status.By)
		}
	})

	t.Run("own draft over foreign", func(t *testing.T) {
		in := baseInput()
		_, _, f, d := span("10:00", "10:30")
		in.Foreign = []model.TempReservation{f}
		in.Draft = &d

		if status := statusAt(t, Build(in), "10:00", "washer-1"); status.State != model.SlotReserved {
			t.Errorf("expected reserved, got %s", status.State)
		}
	})

	t.Run("disabled machine renders as maintenance", func(t *testing.T) {
		in := baseInput()
		in.Settings = model.Settings{Machines: map[string]bool{"washer-1": false}}

		if status := statusAt(t, Build(in), "10:00", "washer-1"); status.State != model.SlotMaintenance {
			t.Errorf("expected maintenance, got %s", status.State)
		}
		if status := statusAt(t, Build(in), "10:00", "washer-2"); status.State != model.SlotAvailable {
			t.Errorf("other machines must stay available, got %s", status.State)
		}
	})

	t.Run("overlays are machine-scoped", func(t *testing.T) {
		in := baseInput()
		b, m, f, _ := span("10:00", "10:30")
		in.Bookings = []model.Booking{b}
		in.Maintenance = []model.MaintenanceInterval{m}
		in.Foreign = []model.TempReservation{f}

		if status := statusAt(t, Build(in), "10:00", "washer-2"); status.State != model.SlotAvailable {
			t.Errorf("washer-2 must be untouched, got %s", status.State)
		}
	})
}

func TestBuildDryerDraftCoversWallClock(t *testing.T) {
	in := baseInput()
	start := time.Date(2026, 8, 31, 10, 15, 0, 0, time.UTC)
	in.Foreign = []model.TempReservation{{
		UserID:          "bob",
		UserName:        "Bob",
		Machine:         "dryer",
		Date:            testDate,
		DurationMinutes: 90,
		StartTimestamp:  start,
		EndTimestamp:    start.Add(90 * time.Minute),
	}}

	g := Build(in)

	// 10:15-11:45 touches the 10:00, 10:30, 11:00 and 11:30 slots.
	for _, clock := range []string{"10:00", "10:30", "11:00", "11:30"} {
		if status := statusAt(t, g, clock, "dryer"); status.State != model.SlotTempReserved {
			t.Errorf("slot %s: expected temp_reserved, got %s", clock, status.State)
		}
	}
	for _, clock := range []string{"09:30", "12:00"} {
		if status := statusAt(t, g, clock, "dryer"); status.State != model.SlotAvailable {
			t.Errorf("slot %s: expected available, got %s", clock, status.State)
		}
	}
}

func TestBuildPastFlag(t *testing.T) {
	in := baseInput()
	in.Settings.BlockPastSlots = true
	in.Now = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	g := Build(in)

	if status := statusAt(t, g, "10:00", "washer-1"); !status.Past {
		t.Error("a fully elapsed slot must be flagged past")
	}
	// The slot containing "now" has not fully elapsed yet.
	if status := statusAt(t, g, "11:30", "washer-1"); status.Past {
		t.Error("a slot ending exactly at now must not be flagged past")
	}
	if status := statusAt(t, g, "12:00", "washer-1"); status.Past {
		t.Error("a future slot must not be flagged past")
	}

	t.Run("disabled toggle", func(t *testing.T) {
		in := baseInput()
		in.Settings.BlockPastSlots = false
		if status := statusAt(t, Build(in), "08:00", "washer-1"); status.Past {
			t.Error("past flag must be off when the setting is off")
		}
	})

	t.Run("other dates unaffected", func(t *testing.T) {
		in := baseInput()
		in.Settings.BlockPastSlots = true
		in.Date = "2026-09-01"
		if status := statusAt(t, Build(in), "08:00", "washer-1"); status.Past {
			t.Error("past flag only applies to today")
		}
	})

	t.Run("flag does not replace state", func(t *testing.T) {
		in := baseInput()
		in.Settings.BlockPastSlots = true
		in.Bookings = []model.Booking{{
			Machine: "washer-1", Date: testDate,
			StartTime: "09:00", EndTime: "09:30",
			User:   model.BookingUser{ID: "alice", Room: "101"},
			Status: model.BookingActive,
		}}
		status := statusAt(t, Build(in), "09:00", "washer-1")
		if status.State != model.SlotOccupied || !status.Past {
			t.Errorf("expected past occupied cell, got %+v", status)
		}
	})
}

func TestClickable(t *testing.T) {
	in := baseInput()
	in.Settings.BlockPastSlots = true
	in.Bookings = []model.Booking{{
		Machine: "washer-1", Date: testDate,
		StartTime: "13:00", EndTime: "13:30",
		User:   model.BookingUser{ID: "alice", Room: "101"},
		Status: model.BookingActive,
	}}
	in.Foreign = []model.TempReservation{{
		UserID: "bob", Machine: "washer-1", Date: testDate,
		Intervals: []model.Interval{{Start: "14:00", End: "14:30"}},
	}}
	in.Draft = &model.TempReservation{
		UserID: "me", Machine: "washer-1", Date: testDate,
		Intervals: []model.Interval{{Start: "15:00", End: "15:30"}},
	}
	g := Build(in)

	idx := func(clock string) int {
		m, _ := timeslot.ToMinutes(clock)
		return timeslot.SlotIndex(m)
	}

	tests := []struct {
		name         string
		slot         string
		machine      string
		draftMachine string
		want         bool
	}{
		{"free future slot", "16:00", "washer-1", "", true},
		{"free slot on drafted machine", "16:00", "washer-1", "washer-1", true},
		{"free slot on other machine while drafting", "16:00", "washer-2", "washer-1", false},
		{"own reserved slot is clickable for truncation", "15:00", "washer-1", "washer-1", true},
		{"occupied slot", "13:00", "washer-1", "", false},
		{"foreign temp slot", "14:00", "washer-1", "", false},
		{"past slot", "08:00", "washer-1", "", false},
		{"unknown machine", "16:00", "washer-9", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Clickable(idx(tt.slot), tt.machine, tt.draftMachine); got != tt.want {
				t.Errorf("Clickable(%s, %s, draft=%q) = %v, want %v",
					tt.slot, tt.machine, tt.draftMachine, got, tt.want)
			}
		})
	}

	if g.Clickable(-1, "washer-1", "") || g.Clickable(len(g.Slots), "washer-1", "") {
		t.Error("out-of-range slot index must never be clickable")
	}
}

func TestFindBooking(t *testing.T) {
	bookings := []model.Booking{
		{
			ID: "b1", Machine: "washer-1", Date: testDate,
			StartTime: "10:00", EndTime: "11:00",
			User:   model.BookingUser{ID: "alice"},
			Status: model.BookingActive,
		},
		{
			ID: "b2", Machine: "washer-1", Date: testDate,
			StartTime: "12:00", EndTime: "12:30",
			User:   model.BookingUser{ID: "alice"},
			Status: model.BookingCancelled,
		},
	}

	if got := FindBooking(bookings, "washer-1", testDate, "10:30"); got == nil || got.ID != "b1" {
		t.Errorf("expected b1 for a slot inside its range, got %+v", got)
	}
	if got := FindBooking(bookings, "washer-1", testDate, "11:00"); got != nil {
		t.Error("booking end is exclusive")
	}
	if got := FindBooking(bookings, "washer-1", testDate, "12:00"); got != nil {
		t.Error("cancelled bookings must not resolve")
	}
	if got := FindBooking(bookings, "washer-2", testDate, "10:00"); got != nil {
		t.Error("machine mismatch must not resolve")
	}
}
