package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionEvent(t *testing.T) {
	event := NewTransactionEvent("3d7a9f2c", ActionCreated)

	if event.ID != "3d7a9f2c" {
		t.Errorf("NewTransactionEvent() ID = %v, want %v", event.ID, "3d7a9f2c")
	}
	if event.Action != ActionCreated {
		t.Errorf("NewTransactionEvent() Action = %v, want %v", event.Action, ActionCreated)
	}
	if event.Version != eventVersion {
		t.Errorf("NewTransactionEvent() Version = %v, want %v", event.Version, eventVersion)
	}
	if event.OccurredAt.IsZero() {
		t.Error("NewTransactionEvent() OccurredAt should not be zero")
	}
	if time.Since(event.OccurredAt) > time.Second {
		t.Error("NewTransactionEvent() OccurredAt should be recent")
	}
}

func TestTransactionEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   TransactionEvent
		wantErr bool
	}{
		{
			name:    "valid created event",
			event:   TransactionEvent{ID: "abc", Action: ActionCreated},
			wantErr: false,
		},
		{
			name:    "valid deleted event",
			event:   TransactionEvent{ID: "abc", Action: ActionDeleted},
			wantErr: false,
		},
		{
			name:    "missing id",
			event:   TransactionEvent{Action: ActionCreated},
			wantErr: true,
		},
		{
			name:    "unknown action",
			event:   TransactionEvent{ID: "abc", Action: "updated"},
			wantErr: true,
		},
		{
			name:    "empty action",
			event:   TransactionEvent{ID: "abc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionEvent_JSON(t *testing.T) {
	occurredAt := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	event := &TransactionEvent{
		ID:         "3d7a9f2c",
		Action:     ActionDeleted,
		OccurredAt: occurredAt,
		Version:    eventVersion,
	}

	jsonBytes, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := TransactionEventFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("TransactionEventFromJSON() error = %v", err)
	}

	if parsed.ID != event.ID {
		t.Errorf("Parsed ID = %v, want %v", parsed.ID, event.ID)
	}
	if parsed.Action != event.Action {
		t.Errorf("Parsed Action = %v, want %v", parsed.Action, event.Action)
	}
	if !parsed.OccurredAt.Equal(event.OccurredAt) {
		t.Errorf("Parsed OccurredAt = %v, want %v", parsed.OccurredAt, event.OccurredAt)
	}
	if parsed.Version != event.Version {
		t.Errorf("Parsed Version = %v, want %v", parsed.Version, event.Version)
	}
}

func TestTransactionEventFromJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "malformed JSON",
			data: []byte(`{"id": "abc", "action":`),
		},
		{
			name: "wrong field type",
			data: []byte(`{"id": 42, "action": "created"}`),
		},
		{
			name: "unknown action",
			data: []byte(`{"id": "abc", "action": "renamed"}`),
		},
		{
			name: "missing id",
			data: []byte(`{"action": "created"}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := TransactionEventFromJSON(tt.data); err == nil {
				t.Error("TransactionEventFromJSON() should fail")
			}
		})
	}
}
