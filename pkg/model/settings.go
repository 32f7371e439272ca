package model

import "time"

// Settings are the operator-owned toggles the grid builder layers first:
// per-machine enabled flags plus the past-slot interaction block.
type Settings struct {
	ID             string          `json:"id,omitempty" bson:"_id,omitempty"`
	Machines       map[string]bool `json:"machines" bson:"machines"`
	BlockPastSlots bool            `json:"block_past_slots" bson:"block_past_slots"`
	UpdatedAt      time.Time       `json:"updated_at" bson:"updated_at"`
}

// Enabled reports whether a machine is switched on. Machines missing from
// the map default to enabled so a fresh install is usable.
func (s *Settings) Enabled(machineID string) bool {
	if s.Machines == nil {
		return true
	}
	enabled, ok := s.Machines[machineID]
	if !ok {
		return true
	}
	return enabled
}
