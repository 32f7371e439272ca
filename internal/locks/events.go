// Package locks implements the ephemeral broadcast lock protocol: the
// typed event union carried over the broadcast channel and the pure
// per-client reducer that folds those events into a foreign-draft map.
//
// The channel is advisory and at-most-once. It exists to make other
// clients' in-flight drafts visible before any of them commit; the
// authoritative write path remains the final arbiter of conflicts.
package locks

import (
	"time"

	apperrors "laundro/pkg/errors"
	"laundro/pkg/model"

	"github.com/google/uuid"
)

type EventType string

const (
	// EventDraftUpdate announces a user's new or changed draft.
	EventDraftUpdate EventType = "draft-update"
	// EventDraftCancel withdraws a user's draft on cancel/submit/teardown.
	EventDraftCancel EventType = "draft-cancel"
	// EventSyncRequest asks peers for the full active-draft map.
	EventSyncRequest EventType = "sync-request"
	// EventSyncResponse carries the full active-draft map to a new peer.
	EventSyncResponse EventType = "sync-response"

	// Externally-originated authoritative invalidation signals.
	EventBookingChanged     EventType = "booking-changed"
	EventMaintenanceChanged EventType = "maintenance-changed"
	EventSettingsChanged    EventType = "settings-changed"
)

type ChangeAction string

const (
	ActionCreate ChangeAction = "create"
	ActionUpdate ChangeAction = "update"
	ActionDelete ChangeAction = "delete"
)

// Event is the single wire shape for every broadcast topic. Which fields
// are meaningful depends on Type; Validate enforces that.
type Event struct {
	Type        EventType               `json:"type"`
	ID          string                  `json:"id"`
	UserID      string                  `json:"user_id,omitempty"`
	Reservation *model.TempReservation  `json:"reservation,omitempty"`
	Snapshot    []model.TempReservation `json:"snapshot,omitempty"`
	Action      ChangeAction            `json:"action,omitempty"`
	SentAt      time.Time               `json:"sent_at"`
}

func newEvent(t EventType, userID string) Event {
	return Event{
		Type:   t,
		ID:     uuid.New().String(),
		UserID: userID,
		SentAt: time.Now(),
	}
}

func NewDraftUpdate(res model.TempReservation) Event {
	ev := newEvent(EventDraftUpdate, res.UserID)
	ev.Reservation = &res
	return ev
}

func NewDraftCancel(userID string) Event {
	return newEvent(EventDraftCancel, userID)
}

func NewSyncRequest(userID string) Event {
	return newEvent(EventSyncRequest, userID)
}

func NewSyncResponse(userID string, snapshot []model.TempReservation) Event {
	ev := newEvent(EventSyncResponse, userID)
	ev.Snapshot = snapshot
	return ev
}

func NewChange(t EventType, action ChangeAction) Event {
	ev := newEvent(t, "")
	ev.Action = action
	return ev
}

// Validate rejects structurally incomplete events. A failing event must
// not be folded into local state; callers re-fetch the authoritative
// source instead of trusting the partial payload.
func (e Event) Validate() error {
	switch e.Type {
	case EventDraftUpdate:
		if e.UserID == "" || e.Reservation == nil {
			return apperrors.StaleState("draft-update missing user or reservation")
		}
		if e.Reservation.Machine == "" || e.Reservation.UserID == "" {
			return apperrors.StaleState("draft-update reservation missing machine or user")
		}
	case EventDraftCancel, EventSyncRequest:
		if e.UserID == "" {
			return apperrors.StaleState(string(e.Type) + " missing user")
		}
	case EventSyncResponse:
		for _, res := range e.Snapshot {
			if res.UserID == "" || res.Machine == "" {
				return apperrors.StaleState("sync-response entry missing user or machine")
			}
		}
	case EventBookingChanged, EventMaintenanceChanged, EventSettingsChanged:
		// Invalidation signals carry no payload to distrust.
	default:
		return apperrors.StaleState("unknown event type " + string(e.Type))
	}
	return nil
}
