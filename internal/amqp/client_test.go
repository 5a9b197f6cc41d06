package amqp

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewTransactionEventMessage(t *testing.T) {
	before := time.Now().UTC()
	msg := NewTransactionEventMessage(ActionCreated, 101, 7)
	after := time.Now().UTC()

	if msg.EventID == "" {
		t.Fatal("event id should be set")
	}
	if msg.Action != ActionCreated {
		t.Fatalf("action = %q, want %q", msg.Action, ActionCreated)
	}
	if msg.TransactionID != 101 || msg.UserID != 7 {
		t.Fatalf("ids = (%d, %d), want (101, 7)", msg.TransactionID, msg.UserID)
	}
	if msg.OccurredAt.Before(before) || msg.OccurredAt.After(after) {
		t.Fatalf("occurredAt %v outside [%v, %v]", msg.OccurredAt, before, after)
	}

	other := NewTransactionEventMessage(ActionCreated, 101, 7)
	if other.EventID == msg.EventID {
		t.Fatal("event ids should be unique per message")
	}
}

func TestTransactionEventMessageJSON(t *testing.T) {
	msg := NewTransactionEventMessage(ActionUpdated, 55, 3)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal wire form: %v", err)
	}
	for _, key := range []string{"eventId", "action", "transactionId", "userId", "occurredAt"} {
		if _, ok := wire[key]; !ok {
			t.Errorf("wire form missing key %q", key)
		}
	}

	got, err := TransactionEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if got.EventID != msg.EventID || got.Action != msg.Action ||
		got.TransactionID != msg.TransactionID || got.UserID != msg.UserID {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, msg)
	}
}

func TestTransactionEventMessageFromJSONInvalid(t *testing.T) {
	if _, err := TransactionEventMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid payload")
	}
}
