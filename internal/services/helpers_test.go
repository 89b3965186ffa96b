package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

// testNow is mid-March so the current period is 2025-03-01 .. 2025-03-31.
var testNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func cents(c int64) core.Money { return core.Money{Cents: c} }

type harness struct {
	store      *memory.Store
	reconciler *Reconciler
	txs        *TransactionService
	budgets    *BudgetService
	events     *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New()
	return newHarnessWith(t, store, store)
}

func newHarnessWith(t *testing.T, store *memory.Store, budgets storage.BudgetStore) *harness {
	t.Helper()
	r := NewReconciler(store, budgets).WithClock(fixedNow)
	events := &recordingPublisher{}
	txs := NewTransactionService(store, r, events, 0)
	txs.now = fixedNow
	bs := NewBudgetService(budgets, r)
	bs.now = fixedNow
	return &harness{store: store, reconciler: r, txs: txs, budgets: bs, events: events}
}

func (h *harness) mustBudget(t *testing.T, userID, category string, amount int64) core.Budget {
	t.Helper()
	b, err := h.store.CreateBudget(context.Background(), core.Budget{
		UserID:    userID,
		Category:  category,
		Amount:    cents(amount),
		Period:    core.Monthly,
		StartDate: testNow,
	})
	if err != nil {
		t.Fatalf("create budget %s: %v", category, err)
	}
	return b
}

func (h *harness) mustCreate(t *testing.T, tx core.Transaction) core.Transaction {
	t.Helper()
	saved, err := h.txs.Create(context.Background(), tx)
	if err != nil {
		t.Fatalf("create transaction %q: %v", tx.Title, err)
	}
	return saved
}

func (h *harness) spent(t *testing.T, userID, category string) core.Money {
	t.Helper()
	b, ok, err := h.store.FindBudgetByCategory(context.Background(), userID, category)
	if err != nil || !ok {
		t.Fatalf("budget %s not found: %v", category, err)
	}
	return b.Spent
}

func expense(userID, category string, amount int64, date time.Time) core.Transaction {
	return core.Transaction{
		UserID:   userID,
		Title:    category + " purchase",
		Amount:   cents(amount),
		Type:     core.Expense,
		Category: category,
		Date:     date,
	}
}

func income(userID string, amount int64, date time.Time) core.Transaction {
	return core.Transaction{
		UserID:   userID,
		Title:    "Salary",
		Amount:   cents(amount),
		Type:     core.Income,
		Category: "Salary",
		Date:     date,
	}
}

// recordingPublisher captures published events and can be told to fail.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, evt *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) kinds() []amqp.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

// spyBudgets records which categories were written and can fail writes.
type spyBudgets struct {
	*memory.Store
	mu      sync.Mutex
	written []string
	err     error
}

func (s *spyBudgets) SetBudgetSpent(ctx context.Context, userID, category string, spent core.Money) (bool, error) {
	s.mu.Lock()
	s.written = append(s.written, category)
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	return s.Store.SetBudgetSpent(ctx, userID, category, spent)
}

func (s *spyBudgets) reset() {
	s.mu.Lock()
	s.written = nil
	s.mu.Unlock()
}

var errBudgetStoreDown = errors.New("budget store unavailable")
