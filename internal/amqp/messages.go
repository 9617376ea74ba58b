package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	ActionCreated = "created"
	ActionDeleted = "deleted"

	eventVersion = 1
)

// TransactionEvent is the lightweight message published after a ledger
// mutation. It carries only identity and what happened; the worker fetches
// the full record itself.
type TransactionEvent struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurredAt"`
	Version    int       `json:"version"`
}

// NewTransactionEvent builds an event for a transaction id and action.
func NewTransactionEvent(id, action string) *TransactionEvent {
	return &TransactionEvent{
		ID:         id,
		Action:     action,
		OccurredAt: time.Now().UTC(),
		Version:    eventVersion,
	}
}

func (e *TransactionEvent) Validate() error {
	if e.ID == "" {
		return errors.New("event id is required")
	}
	switch e.Action {
	case ActionCreated, ActionDeleted:
	default:
		return fmt.Errorf("unknown event action %q", e.Action)
	}
	return nil
}

// ToJSON converts the event to JSON bytes.
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON parses and validates an event from JSON bytes.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
