package amqp

import (
	"encoding/json"
	"time"
)

// TransactionEventMessage describes one ledger mutation. It carries only the
// action and the transaction id; consumers fetch the full record themselves.
type TransactionEventMessage struct {
	Action        string    `json:"action"`
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEventMessage(action string, transactionID int64) *TransactionEventMessage {
	return &TransactionEventMessage{
		Action:        action,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
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
