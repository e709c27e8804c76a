package amqp

import (
	"testing"
	"time"
)

func TestEventChangedMessageRoundTrip(t *testing.T) {
	msg := NewEventChangedMessage(42, OpCreated)
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be stamped at construction")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := EventChangedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("EventChangedMessageFromJSON() error = %v", err)
	}
	if got.EventID != 42 || got.Op != OpCreated {
		t.Errorf("round-tripped message = %+v", got)
	}
	if !got.Timestamp.Truncate(time.Second).Equal(msg.Timestamp.Truncate(time.Second)) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, msg.Timestamp)
	}
}

func TestEventChangedMessageFromJSONRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"unknown op", `{"eventId":1,"op":"renamed"}`},
		{"missing op", `{"eventId":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EventChangedMessageFromJSON([]byte(tt.body)); err == nil {
				t.Error("EventChangedMessageFromJSON() = nil, want error")
			}
		})
	}
}
