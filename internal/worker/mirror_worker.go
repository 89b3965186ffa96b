package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
)

// MirrorWorker applies transaction events to the spreadsheet mirror.
type MirrorWorker struct {
	mirror sheets.LedgerMirror
}

func NewMirrorWorker(mirror sheets.LedgerMirror) *MirrorWorker {
	return &MirrorWorker{mirror: mirror}
}

// HandleTransactionEvent is the amqp consumer callback. A returned error
// makes the broker redeliver the message.
func (w *MirrorWorker) HandleTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	tx := evt.Transaction
	fields := applog.NewFields().
		WithComponent(applog.ComponentWorker).
		WithUser(tx.UserID).
		WithTransaction(tx.ID, string(tx.Type), tx.Category, tx.Amount.Cents)
	slog.InfoContext(ctx, "Processing transaction event", append(fields.ToSlice(), "kind", evt.Kind)...)

	switch evt.Kind {
	case amqp.TransactionCreated, amqp.TransactionUpdated:
		ref, err := w.mirror.Upsert(ctx, tx)
		if err != nil {
			return fmt.Errorf("mirror upsert %s: %w", tx.ID, err)
		}
		slog.InfoContext(ctx, "Transaction mirrored",
			"id", tx.ID,
			"sheets_ref", ref)
	case amqp.TransactionDeleted:
		if err := w.mirror.Delete(ctx, tx.ID); err != nil {
			return fmt.Errorf("mirror delete %s: %w", tx.ID, err)
		}
		slog.InfoContext(ctx, "Transaction removed from mirror", "id", tx.ID)
	default:
		return fmt.Errorf("unknown event kind: %s", evt.Kind)
	}
	return nil
}
