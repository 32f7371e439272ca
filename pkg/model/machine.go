package model

type MachineKind string

const (
	// MachineWasher machines book in discrete 30-minute slots.
	MachineWasher MachineKind = "washer"
	// MachineDryer books by continuous duration instead of slots.
	MachineDryer MachineKind = "dryer"
)

type Machine struct {
	ID    string      `json:"id" bson:"_id"`
	Kind  MachineKind `json:"kind" bson:"kind" validate:"required,oneof=washer dryer"`
	Label string      `json:"label" bson:"label"`
}
