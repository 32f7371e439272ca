package locks

import (
	"sort"

	"laundro/pkg/model"
	"laundro/pkg/timeslot"
)

// Table is one client's view of every *other* user's in-flight draft.
// It is a pure reducer over broadcast events: events referencing the
// owning user are ignored, so the owner's local draft always wins over
// anything the channel says about them.
type Table struct {
	self    string
	entries map[string]model.TempReservation
}

func NewTable(selfID string) *Table {
	return &Table{
		self:    selfID,
		entries: make(map[string]model.TempReservation),
	}
}

// Apply folds one broadcast event into the table. It reports whether the
// foreign-draft view changed, which tells the caller to rebuild the grid.
func (t *Table) Apply(ev Event) (bool, error) {
	if err := ev.Validate(); err != nil {
		return false, err
	}

	switch ev.Type {
	case EventDraftUpdate:
		if ev.UserID == t.self {
			return false, nil
		}
		t.entries[ev.UserID] = *ev.Reservation
		return true, nil

	case EventDraftCancel:
		if ev.UserID == t.self {
			return false, nil
		}
		if _, ok := t.entries[ev.UserID]; !ok {
			return false, nil
		}
		delete(t.entries, ev.UserID)
		return true, nil

	case EventSyncResponse:
		changed := len(t.entries) > 0
		t.entries = make(map[string]model.TempReservation, len(ev.Snapshot))
		for _, res := range ev.Snapshot {
			// A synced entry for ourselves never overrides local state.
			if res.UserID == t.self {
				continue
			}
			t.entries[res.UserID] = res
			changed = true
		}
		return changed, nil
	}

	return false, nil
}

// Remove drops a user's entry outside the event path, e.g. after their
// draft became an authoritative booking.
func (t *Table) Remove(userID string) bool {
	if _, ok := t.entries[userID]; !ok {
		return false
	}
	delete(t.entries, userID)
	return true
}

// Foreign returns the current foreign drafts ordered by user id, for
// deterministic grid rebuilds.
func (t *Table) Foreign() []model.TempReservation {
	out := make([]model.TempReservation, 0, len(t.entries))
	for _, res := range t.entries {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Holder returns the foreign draft claiming the given machine on the
// given date, or nil. For the dryer the date check is skipped since a
// dryer draft is always anchored to "now".
func (t *Table) Holder(machineID, date string) *model.TempReservation {
	for _, res := range t.entries {
		if res.Machine != machineID {
			continue
		}
		if res.Dryer() || res.Date == date {
			held := res
			return &held
		}
	}
	return nil
}

// SpanConflict returns the foreign draft whose intervals overlap the
// candidate span on the given machine and date, or nil.
func (t *Table) SpanConflict(machineID, date string, span timeslot.Span) *model.TempReservation {
	for _, res := range t.entries {
		if res.Machine != machineID || res.Date != date {
			continue
		}
		for _, iv := range res.Intervals {
			start, err := timeslot.ToMinutes(iv.Start)
			if err != nil {
				continue
			}
			end, err := timeslot.ToMinutes(iv.End)
			if err != nil {
				continue
			}
			if timeslot.Overlaps(span, timeslot.Span{Start: start, End: end}) {
				held := res
				return &held
			}
		}
	}
	return nil
}

// Snapshot assembles the full active-draft map for a sync-response,
// foreign entries plus the caller's own draft when one is active.
func (t *Table) Snapshot(own *model.TempReservation) []model.TempReservation {
	snapshot := t.Foreign()
	if own != nil {
		snapshot = append(snapshot, *own)
	}
	return snapshot
}

// Len is the number of foreign drafts currently tracked.
func (t *Table) Len() int {
	return len(t.entries)
}
