// Package worker reacts to ledger mutation events from the broker.
package worker

import (
	"context"
	"log/slog"

	"conti/internal/amqp"
	"conti/internal/core"
)

// TransactionReader loads one transaction by id.
type TransactionReader interface {
	Transaction(ctx context.Context, id int64) (core.Transaction, error)
}

// EventWorker handles mutation events: it reloads the affected transaction
// from the store and writes an audit log line. Events carry only the id, so
// the worker always sees the current state, not the state at publish time.
type EventWorker struct {
	reader TransactionReader
}

func NewEventWorker(reader TransactionReader) *EventWorker {
	return &EventWorker{reader: reader}
}

// Handle processes one event. A missing transaction is not an error: the
// record may have been deleted after the event was published, so the message
// is acknowledged rather than requeued.
func (w *EventWorker) Handle(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	if msg.Action == "deleted" {
		slog.InfoContext(ctx, "Transaction deleted",
			"transaction_id", msg.TransactionID,
			"published_at", msg.Timestamp)
		return nil
	}

	t, err := w.reader.Transaction(ctx, msg.TransactionID)
	if err != nil {
		if core.IsNotFound(err) {
			slog.WarnContext(ctx, "Transaction gone before event was handled",
				"action", msg.Action,
				"transaction_id", msg.TransactionID)
			return nil
		}
		return err
	}

	slog.InfoContext(ctx, "Transaction event handled",
		"action", msg.Action,
		"transaction_id", t.ID,
		"description", t.Description,
		"lines", len(t.Lines))
	return nil
}
