package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is a Kafka message with metadata.
type Message struct {
	Key       string            // partition key (machine id keeps per-machine ordering)
	Value     []byte            // JSON-encoded payload
	Headers   map[string]string // message headers
	Topic     string            // topic name
	Partition int               // set by Kafka
	Offset    int64             // set by Kafka
	Timestamp time.Time
}

// Header keys shared between producer and consumers.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"
	HeaderTimestamp = "timestamp"
)

// NewMessage builds a message for the given event type, keyed for
// per-machine ordering.
func NewMessage(eventType, key string, payload any) (Message, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	now := time.Now()
	return Message{
		Key:       key,
		Value:     value,
		Timestamp: now,
		Headers: map[string]string{
			HeaderEventID:   uuid.New().String(),
			HeaderEventType: eventType,
			HeaderTimestamp: now.Format(time.RFC3339),
		},
	}, nil
}

// MessageHandler processes one consumed message. Returning an error marks
// the message as failed.
type MessageHandler func(ctx context.Context, msg Message) error

// DecodeValue decodes the message value into the provided struct.
func (m *Message) DecodeValue(v any) error {
	return json.Unmarshal(m.Value, v)
}

// EventType returns the event type header.
func (m *Message) EventType() string {
	return m.Headers[HeaderEventType]
}

// EventID returns the event ID header.
func (m *Message) EventID() string {
	return m.Headers[HeaderEventID]
}
