package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets/memory"
)

type failingMirror struct{ err error }

func (m failingMirror) Upsert(context.Context, core.Transaction) (string, error) { return "", m.err }
func (m failingMirror) Delete(context.Context, string) error                    { return m.err }

func sampleTx(id, title string) core.Transaction {
	return core.Transaction{
		ID:       id,
		UserID:   "u1",
		Title:    title,
		Amount:   core.Money{Cents: 900},
		Type:     core.Expense,
		Category: "Food",
		Date:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMirrorWorkerAppliesEvents(t *testing.T) {
	mirror := memory.New()
	w := NewMirrorWorker(mirror)
	ctx := context.Background()

	steps := []*amqp.TransactionEvent{
		amqp.NewTransactionEvent(amqp.TransactionCreated, sampleTx("a", "Lunch"), nil),
		amqp.NewTransactionEvent(amqp.TransactionCreated, sampleTx("b", "Dinner"), nil),
		amqp.NewTransactionEvent(amqp.TransactionUpdated, sampleTx("a", "Brunch"), nil),
		amqp.NewTransactionEvent(amqp.TransactionDeleted, sampleTx("b", "Dinner"), nil),
	}
	for _, evt := range steps {
		if err := w.HandleTransactionEvent(ctx, evt); err != nil {
			t.Fatalf("HandleTransactionEvent(%s) error = %v", evt.Kind, err)
		}
	}

	rows := mirror.Rows()
	if len(rows) != 1 || rows[0].ID != "a" || rows[0].Title != "Brunch" {
		t.Errorf("rows = %+v, want only the updated a", rows)
	}
}

func TestMirrorWorkerPropagatesErrors(t *testing.T) {
	boom := errors.New("sheets unavailable")
	w := NewMirrorWorker(failingMirror{err: boom})

	for _, kind := range []amqp.EventKind{amqp.TransactionCreated, amqp.TransactionDeleted} {
		err := w.HandleTransactionEvent(context.Background(), amqp.NewTransactionEvent(kind, sampleTx("a", "Lunch"), nil))
		if !errors.Is(err, boom) {
			t.Errorf("%s: error = %v, want wrapped %v", kind, err, boom)
		}
	}
}

func TestMirrorWorkerRejectsUnknownKind(t *testing.T) {
	w := NewMirrorWorker(memory.New())
	err := w.HandleTransactionEvent(context.Background(), &amqp.TransactionEvent{Kind: "transaction.archived", Transaction: sampleTx("a", "x")})
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
