package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operations carried by change messages.
const (
	OpCreated = "created"
	OpDeleted = "deleted"
)

// EventChangedMessage announces that the event set changed, so other
// instances can drop their aggregate views and refetch. It carries only the
// id and operation; consumers always refetch the whole set.
type EventChangedMessage struct {
	EventID   int64     `json:"eventId"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEventChangedMessage builds a change message stamped with now.
func NewEventChangedMessage(eventID int64, op string) *EventChangedMessage {
	return &EventChangedMessage{
		EventID:   eventID,
		Op:        op,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *EventChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventChangedMessageFromJSON parses and validates a change message.
func EventChangedMessageFromJSON(data []byte) (*EventChangedMessage, error) {
	var msg EventChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Op != OpCreated && msg.Op != OpDeleted {
		return nil, fmt.Errorf("unknown change operation %q", msg.Op)
	}
	return &msg, nil
}
