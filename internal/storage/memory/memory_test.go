package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestTransactionsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := New()

	tx, err := s.InsertTransaction(ctx, core.Transaction{UserID: "u1", Title: "Coffee", Amount: core.Money{Cents: 300}, Type: core.Expense, Category: "Food", Date: time.Now()})
	if err != nil || tx.ID == "" {
		t.Fatalf("insert: id=%q err=%v", tx.ID, err)
	}

	if _, err := s.GetTransaction(ctx, "u2", tx.ID); !isNotFound(err) {
		t.Fatalf("foreign read should be not found, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "u2", tx.ID); !isNotFound(err) {
		t.Fatalf("foreign delete should be not found, got %v", err)
	}
	foreign := tx
	foreign.UserID = "u2"
	if err := s.UpdateTransaction(ctx, foreign); !isNotFound(err) {
		t.Fatalf("foreign update should be not found, got %v", err)
	}

	tx.Amount = core.Money{Cents: 450}
	if err := s.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("update: %v", err)
	}
	sum, _ := s.SumTransactions(ctx, core.NewQuery("u1").OfType(core.Expense))
	if sum.Cents != 450 {
		t.Fatalf("sum = %d, want 450", sum.Cents)
	}
	n, _ := s.CountTransactions(ctx, core.NewQuery("u1"))
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	if err := s.DeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	sum, _ = s.SumTransactions(ctx, core.NewQuery("u1"))
	if !sum.IsZero() {
		t.Fatalf("sum after delete = %d", sum.Cents)
	}
}

func TestBudgetUniquenessAndSpent(t *testing.T) {
	ctx := context.Background()
	s := New()

	food, err := s.CreateBudget(ctx, core.Budget{UserID: "u1", Category: "Food", Amount: core.Money{Cents: 20000}, Period: core.Monthly})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var conflict *core.ConflictError
	if _, err := s.CreateBudget(ctx, core.Budget{UserID: "u1", Category: "Food", Period: core.Monthly}); !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := s.CreateBudget(ctx, core.Budget{UserID: "u2", Category: "Food", Period: core.Monthly}); err != nil {
		t.Fatalf("other user may reuse category: %v", err)
	}

	found, err := s.SetBudgetSpent(ctx, "u1", "Food", core.Money{Cents: 5000})
	if err != nil || !found {
		t.Fatalf("set spent: found=%v err=%v", found, err)
	}
	found, err = s.SetBudgetSpent(ctx, "u1", "Travel", core.Money{Cents: 1})
	if err != nil || found {
		t.Fatalf("missing budget should be a no-op: found=%v err=%v", found, err)
	}
	got, ok, _ := s.FindBudgetByCategory(ctx, "u1", "Food")
	if !ok || got.Spent.Cents != 5000 || got.ID != food.ID {
		t.Fatalf("unexpected budget %+v", got)
	}

	rent, _ := s.CreateBudget(ctx, core.Budget{UserID: "u1", Category: "Rent", Period: core.Monthly})
	rent.Category = "Food"
	if err := s.UpdateBudget(ctx, rent); !errors.As(err, &conflict) {
		t.Fatalf("renaming onto an existing category should conflict, got %v", err)
	}

	owners, _ := s.ListBudgetOwners(ctx)
	if len(owners) != 2 || owners[0] != "u1" || owners[1] != "u2" {
		t.Fatalf("owners = %v", owners)
	}
}

func TestGoalsAndUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	g, _ := s.CreateGoal(ctx, core.SavingsGoal{UserID: "u1", Name: "Bike", TargetAmount: core.Money{Cents: 50000}, TargetDate: time.Now()})
	g, err := s.AddGoalFunds(ctx, "u1", g.ID, core.Money{Cents: 1500})
	if err != nil || g.CurrentAmount.Cents != 1500 {
		t.Fatalf("add funds: %+v %v", g, err)
	}
	if _, err := s.AddGoalFunds(ctx, "u2", g.ID, core.Money{Cents: 1}); !isNotFound(err) {
		t.Fatalf("foreign add funds should be not found, got %v", err)
	}

	u, err := s.CreateUser(ctx, core.User{Email: "Ada@Example.com", Firstname: "Ada", Lastname: "L"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	var conflict *core.ConflictError
	if _, err := s.CreateUser(ctx, core.User{Email: "ada@example.com"}); !errors.As(err, &conflict) {
		t.Fatalf("duplicate email should conflict, got %v", err)
	}
	byEmail, err := s.GetUserByEmail(ctx, " ADA@example.com ")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("lookup by email: %+v %v", byEmail, err)
	}
}

func isNotFound(err error) bool {
	var nf *core.NotFoundError
	return errors.As(err, &nf)
}
