package seed

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

func newSeeder(store *memory.Store) *Seeder {
	reconciler := services.NewReconciler(store, store)
	return NewSeeder(
		auth.NewService(store),
		services.NewTransactionService(store, reconciler, nil, 0),
		services.NewBudgetService(store, reconciler),
		services.NewGoalService(store),
	)
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := time.Now()

	res, err := newSeeder(store).Run(ctx, Options{
		Email:                "demo@example.com",
		Password:             "demo-password",
		Months:               3,
		TransactionsPerMonth: 5,
		Goals:                2,
		Seed:                 42,
		Now:                  now,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Transactions != 21 || res.Budgets != 3 || res.Goals != 2 {
		t.Fatalf("result=%+v", res)
	}

	n, err := store.CountTransactions(ctx, core.NewQuery(res.UserID))
	if err != nil || n != 21 {
		t.Fatalf("count=%d err=%v", n, err)
	}

	_, ok, err := auth.NewService(store).VerifyCredentials(ctx, "demo@example.com", "demo-password")
	if err != nil || !ok {
		t.Fatalf("credentials rejected: %v", err)
	}

	// Seeded budgets went through reconciliation.
	start, end := core.MonthBounds(now)
	budgets, err := store.ListBudgets(ctx, res.UserID)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	for _, b := range budgets {
		want, err := store.SumTransactions(ctx, core.NewQuery(res.UserID).
			OfType(core.Expense).InCategory(b.Category).Between(start, end))
		if err != nil {
			t.Fatalf("SumTransactions: %v", err)
		}
		if b.Spent != want {
			t.Fatalf("%s spent=%s want %s", b.Category, b.Spent, want)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	opts := Options{Months: 1, TransactionsPerMonth: 2, Seed: 7, Now: time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)}

	a, err := newSeeder(memory.New()).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := newSeeder(memory.New()).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if a.Email != b.Email || a.Password != b.Password {
		t.Fatalf("runs differ: %+v vs %+v", a, b)
	}
}

func TestRun_DuplicateEmail(t *testing.T) {
	store := memory.New()
	s := newSeeder(store)
	opts := Options{Email: "demo@example.com", Password: "pw", Months: 1, Seed: 1}
	if _, err := s.Run(context.Background(), opts); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := s.Run(context.Background(), opts); err == nil {
		t.Fatalf("expected conflict on second run")
	}
}
