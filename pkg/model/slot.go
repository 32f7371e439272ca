package model

// SlotState is the semantic status of one (slot, machine) cell in the
// availability grid. Exactly one state holds per cell at any instant;
// the grid builder resolves precedence when several conditions are true.
type SlotState string

const (
	SlotAvailable SlotState = "available"
	// SlotOccupied carries the occupying room in SlotStatus.By.
	SlotOccupied SlotState = "occupied"
	// SlotMaintenance covers both scheduled maintenance windows and
	// machines disabled via settings; both render as unavailable.
	SlotMaintenance SlotState = "maintenance"
	// SlotReserved is the current user's own uncommitted draft.
	SlotReserved SlotState = "reserved"
	// SlotTempReserved is another user's in-flight draft.
	SlotTempReserved SlotState = "temp_reserved"
)

// SlotStatus is the rendered status of one grid cell. Past is a
// presentation flag that disables interaction without replacing the
// semantic state used for counts.
type SlotStatus struct {
	State SlotState `json:"state"`
	By    string    `json:"by,omitempty"`
	Past  bool      `json:"past,omitempty"`
}

// TimeSlot is one row of the availability grid: a fixed 30-minute window
// with a status per machine. Generated fresh per render, never persisted.
type TimeSlot struct {
	StartTime string                `json:"start_time"`
	EndTime   string                `json:"end_time"`
	Status    map[string]SlotStatus `json:"status"`
}

// Interval is a [start,end) clock range within one day.
type Interval struct {
	Start string `json:"start" bson:"start" validate:"required"`
	End   string `json:"end" bson:"end" validate:"required"`
}
