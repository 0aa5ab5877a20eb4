package amqp

import "testing"

func TestTransactionEventMessageJSON(t *testing.T) {
	msg := NewTransactionEventMessage("created", 42)
	if msg.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := TransactionEventMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Action != "created" || got.TransactionID != 42 {
		t.Errorf("got %+v, want action=created id=42", got)
	}
}

func TestTransactionEventMessageFromJSONInvalid(t *testing.T) {
	if _, err := TransactionEventMessageFromJSON([]byte("not json")); err == nil {
		t.Error("expected an error for malformed input")
	}
}
