package hub

import (
	"context"
	"strings"

	"laundro/internal/locks"
	"laundro/pkg/kafka"
	"laundro/pkg/logger"
)

// ChangeRelay turns persisted change events from the event topic into
// broadcast invalidation signals. Connected clients respond by
// re-fetching authoritative state, so the payload is never forwarded,
// only the fact that something changed.
func ChangeRelay(h *Hub, log *logger.Logger) kafka.MessageHandler {
	if log == nil {
		log = logger.Discard()
	}
	return func(ctx context.Context, msg kafka.Message) error {
		eventType := msg.EventType()

		domain, verb, ok := strings.Cut(eventType, ".")
		if !ok {
			log.Warn("Dropping event without domain prefix", "event_type", eventType)
			return nil
		}

		var changed locks.EventType
		switch domain {
		case "booking":
			changed = locks.EventBookingChanged
		case "maintenance":
			changed = locks.EventMaintenanceChanged
		case "settings":
			changed = locks.EventSettingsChanged
		default:
			log.Warn("Dropping event for unknown domain", "event_type", eventType)
			return nil
		}

		if err := h.Publish(locks.NewChange(changed, changeAction(verb))); err != nil {
			return err
		}

		log.Debug("Relayed change event", "event_type", eventType)
		return nil
	}
}

func changeAction(verb string) locks.ChangeAction {
	switch verb {
	case "created":
		return locks.ActionCreate
	case "deleted":
		return locks.ActionDelete
	default:
		// Cancellation and settings updates mutate existing state.
		return locks.ActionUpdate
	}
}
