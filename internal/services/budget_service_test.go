package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

func TestCreateBudgetReconcilesImmediately(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mustCreate(t, expense("u1", "Food", 4000, testNow))
	h.mustCreate(t, expense("u1", "Food", 1000, testNow.AddDate(0, -1, 0)))

	view, err := h.budgets.Create(ctx, core.Budget{UserID: "u1", Category: " Food ", Amount: cents(10000)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if view.Category != "Food" || view.Period != core.Monthly {
		t.Errorf("view = %+v, want trimmed category and monthly default", view)
	}
	if view.Spent.Cents != 4000 || view.PercentageUsed != 40 {
		t.Errorf("spent = %d used = %d, want 4000 and 40", view.Spent.Cents, view.PercentageUsed)
	}
}

func TestCreateBudgetConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.budgets.Create(ctx, core.Budget{UserID: "u1", Category: "Food", Amount: cents(100)}); err != nil {
		t.Fatal(err)
	}

	_, err := h.budgets.Create(ctx, core.Budget{UserID: "u1", Category: "Food", Amount: cents(200)})
	var conflict *core.ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("Create() error = %v, want conflict", err)
	}
}

func TestCreateBudgetValidation(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name  string
		b     core.Budget
		field string
	}{
		{"empty category", core.Budget{UserID: "u1", Amount: cents(100)}, "category"},
		{"negative amount", core.Budget{UserID: "u1", Category: "Food", Amount: cents(-1)}, "amount"},
		{"bad period", core.Budget{UserID: "u1", Category: "Food", Period: "weekly"}, "period"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.budgets.Create(context.Background(), tt.b)
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Errorf("Create() error = %v, want %s validation error", err, tt.field)
			}
		})
	}
}

func TestUpdateBudgetCategoryTakesNewSpent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mustCreate(t, expense("u1", "Food", 4000, testNow))
	h.mustCreate(t, expense("u1", "Transport", 700, testNow))

	view, err := h.budgets.Create(ctx, core.Budget{UserID: "u1", Category: "Food", Amount: cents(10000)})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := h.budgets.Update(ctx, core.Budget{ID: view.ID, UserID: "u1", Category: "Transport", Amount: cents(1000), Period: core.Yearly})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Spent.Cents != 700 || updated.Remaining.Cents != 300 || updated.Period != core.Yearly {
		t.Errorf("updated = %+v", updated)
	}

	var nf *core.NotFoundError
	if _, err := h.budgets.Update(ctx, core.Budget{ID: view.ID, UserID: "u2", Category: "X"}); !errors.As(err, &nf) {
		t.Errorf("foreign update error = %v, want not found", err)
	}
}

func TestPercentageUsedIsNotClamped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mustCreate(t, expense("u1", "Food", 15000, testNow))

	view, err := h.budgets.Create(ctx, core.Budget{UserID: "u1", Category: "Food", Amount: cents(10000)})
	if err != nil {
		t.Fatal(err)
	}
	if view.PercentageUsed != 150 || view.Remaining.Cents != -5000 {
		t.Errorf("used = %d remaining = %d, want 150 and -5000", view.PercentageUsed, view.Remaining.Cents)
	}
}

func TestRecomputeBudgets(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mustBudget(t, "u1", "Food", 10000)
	if _, err := h.store.InsertTransaction(ctx, expense("u1", "Food", 2500, testNow)); err != nil {
		t.Fatal(err)
	}

	views, err := h.budgets.Recompute(ctx, "u1")
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if len(views) != 1 || views[0].Spent.Cents != 2500 {
		t.Errorf("views = %+v", views)
	}
}

func TestDeleteBudget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.mustBudget(t, "u1", "Food", 100)

	var nf *core.NotFoundError
	if err := h.budgets.Delete(ctx, "u2", b.ID); !errors.As(err, &nf) {
		t.Errorf("foreign delete error = %v", err)
	}
	if err := h.budgets.Delete(ctx, "u1", b.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err := h.budgets.Get(ctx, "u1", b.ID); !errors.As(err, &nf) {
		t.Errorf("Get() after delete error = %v", err)
	}
}
