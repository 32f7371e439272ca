package groups

import (
	"testing"

	"laundro/pkg/model"
)

func booking(id, machine, date, start, end, userID string) model.Booking {
	return model.Booking{
		ID:        id,
		Machine:   machine,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		User:      model.BookingUser{ID: userID, Name: "user " + userID, Room: "101"},
		Status:    model.BookingActive,
	}
}

func TestGroupMergesAdjacent(t *testing.T) {
	groups := Group([]model.Booking{
		booking("b2", "washer-1", "2026-08-31", "10:30", "11:00", "alice"),
		booking("b1", "washer-1", "2026-08-31", "10:00", "10:30", "alice"),
	})

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.StartTime != "10:00" || g.FinalEndTime != "11:00" {
		t.Errorf("group spans %s-%s, want 10:00-11:00", g.StartTime, g.FinalEndTime)
	}
	if g.GroupedMinutes != 60 {
		t.Errorf("GroupedMinutes = %d, want 60", g.GroupedMinutes)
	}
	if len(g.OriginalIDs) != 2 || g.OriginalIDs[0] != "b1" || g.OriginalIDs[1] != "b2" {
		t.Errorf("OriginalIDs = %v, want [b1 b2]", g.OriginalIDs)
	}
}

func TestGroupBoundaries(t *testing.T) {
	tests := []struct {
		name string
		a, b model.Booking
	}{
		{
			name: "gap between bookings",
			a:    booking("b1", "washer-1", "2026-08-31", "10:00", "10:30", "alice"),
			b:    booking("b2", "washer-1", "2026-08-31", "11:00", "11:30", "alice"),
		},
		{
			name: "different machines",
			a:    booking("b1", "washer-1", "2026-08-31", "10:00", "10:30", "alice"),
			b:    booking("b2", "washer-2", "2026-08-31", "10:30", "11:00", "alice"),
		},
		{
			name: "different users",
			a:    booking("b1", "washer-1", "2026-08-31", "10:00", "10:30", "alice"),
			b:    booking("b2", "washer-1", "2026-08-31", "10:30", "11:00", "bob"),
		},
		{
			name: "different dates",
			a:    booking("b1", "washer-1", "2026-08-31", "10:00", "10:30", "alice"),
			b:    booking("b2", "washer-1", "2026-09-01", "10:30", "11:00", "alice"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Group([]model.Booking{tt.a, tt.b})
			if len(groups) != 2 {
				t.Errorf("expected 2 groups, got %d", len(groups))
			}
		})
	}
}

func TestGroupLongRunAndSingleton(t *testing.T) {
	groups := Group([]model.Booking{
		booking("b3", "washer-1", "2026-08-31", "11:00", "11:30", "alice"),
		booking("b1", "washer-1", "2026-08-31", "10:00", "10:30", "alice"),
		booking("b2", "washer-1", "2026-08-31", "10:30", "11:00", "alice"),
		booking("s1", "washer-2", "2026-08-31", "14:00", "14:30", "bob"),
	})

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	var run, single *model.BookingGroup
	for i := range groups {
		if groups[i].Machine == "washer-1" {
			run = &groups[i]
		} else {
			single = &groups[i]
		}
	}
	if run == nil || single == nil {
		t.Fatal("expected one run and one singleton")
	}
	if len(run.OriginalIDs) != 3 || run.GroupedMinutes != 90 {
		t.Errorf("run = %d bookings / %d minutes, want 3 / 90", len(run.OriginalIDs), run.GroupedMinutes)
	}
	if len(single.OriginalIDs) != 1 || single.FinalEndTime != "14:30" {
		t.Errorf("singleton mismatch: %+v", single)
	}
}

func TestGroupDryerDuration(t *testing.T) {
	b := booking("d1", "dryer", "2026-08-31", "10:15", "11:45", "alice")
	b.DurationMinutes = 90

	groups := Group([]model.Booking{b})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].GroupedMinutes != 90 {
		t.Errorf("GroupedMinutes = %d, want the stored duration 90", groups[0].GroupedMinutes)
	}
}

func TestGroupEmpty(t *testing.T) {
	if got := Group(nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestBlockFor(t *testing.T) {
	all := []model.Booking{
		booking("b1", "washer-1", "2026-08-31", "10:00", "10:30", "alice"),
		booking("b2", "washer-1", "2026-08-31", "10:30", "11:00", "alice"),
		booking("b3", "washer-1", "2026-08-31", "11:00", "11:30", "alice"),
		booking("x1", "washer-1", "2026-08-31", "13:00", "13:30", "alice"),
		booking("y1", "washer-2", "2026-08-31", "10:30", "11:00", "alice"),
	}

	block := BlockFor(all[1], all)
	if len(block.OriginalIDs) != 3 {
		t.Fatalf("expected block of 3, got %v", block.OriginalIDs)
	}
	if block.StartTime != "10:00" || block.FinalEndTime != "11:30" {
		t.Errorf("block spans %s-%s, want 10:00-11:30", block.StartTime, block.FinalEndTime)
	}

	// The detached booking forms its own block.
	if block := BlockFor(all[3], all); len(block.OriginalIDs) != 1 || block.OriginalIDs[0] != "x1" {
		t.Errorf("expected x1 alone, got %v", block.OriginalIDs)
	}
}

func TestBlockForSkipsCancelled(t *testing.T) {
	all := []model.Booking{
		booking("b1", "washer-1", "2026-08-31", "10:00", "10:30", "alice"),
		booking("b2", "washer-1", "2026-08-31", "10:30", "11:00", "alice"),
		booking("b3", "washer-1", "2026-08-31", "11:00", "11:30", "alice"),
	}
	all[1].Status = model.BookingCancelled

	// The cancelled middle booking splits the run.
	block := BlockFor(all[0], all)
	if len(block.OriginalIDs) != 1 || block.OriginalIDs[0] != "b1" {
		t.Errorf("expected b1 alone, got %v", block.OriginalIDs)
	}

	// A cancelled target still resolves to itself.
	block = BlockFor(all[1], all)
	if len(block.OriginalIDs) != 1 || block.OriginalIDs[0] != "b2" {
		t.Errorf("expected cancelled target as its own block, got %v", block.OriginalIDs)
	}
}
