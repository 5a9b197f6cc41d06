package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Actions carried by transaction events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEventMessage is the lightweight event published after a
// transaction write. The worker fetches the full row from the
// database, so the message only needs identity and intent. EventID
// lets consumers deduplicate redeliveries.
type TransactionEventMessage struct {
	EventID       string    `json:"eventId"`
	Action        string    `json:"action"`
	TransactionID int64     `json:"transactionId"`
	UserID        int64     `json:"userId"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func NewTransactionEventMessage(action string, transactionID, userID int64) *TransactionEventMessage {
	return &TransactionEventMessage{
		EventID:       uuid.NewString(),
		Action:        action,
		TransactionID: transactionID,
		UserID:        userID,
		OccurredAt:    time.Now().UTC(),
	}
}

func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
