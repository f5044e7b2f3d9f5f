package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"kas/internal/ledger"
)

// LedgerEventMessage is the notice published after every committed ledger
// change. It carries no ledger data; consumers reload the storage slot.
type LedgerEventMessage struct {
	Kind      ledger.EventKind `json:"kind"`
	ID        string           `json:"id,omitempty"`
	Revision  int64            `json:"revision"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewLedgerEventMessage builds the message for ev. A zero event time is
// replaced with the current time.
func NewLedgerEventMessage(ev ledger.Event) *LedgerEventMessage {
	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerEventMessage{
		Kind:      ev.Kind,
		ID:        ev.ID,
		Revision:  ev.Revision,
		Timestamp: ts.UTC(),
	}
}

// Event converts the message back to a ledger event.
func (m *LedgerEventMessage) Event() ledger.Event {
	return ledger.Event{Kind: m.Kind, ID: m.ID, Revision: m.Revision, Time: m.Timestamp}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON parses a message and rejects one without a kind.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" {
		return nil, errors.New("ledger event message has no kind")
	}
	return &msg, nil
}
