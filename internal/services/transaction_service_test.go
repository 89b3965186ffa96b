package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

func TestCreateRejectsInvalidTransaction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bad := expense("u1", "Food", 100, testNow)
	bad.Title = "   "
	_, err := h.txs.Create(ctx, bad)

	var vErr *core.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "title" {
		t.Fatalf("Create() error = %v, want title validation error", err)
	}
	if n, _ := h.store.CountTransactions(ctx, core.NewQuery("u1")); n != 0 {
		t.Errorf("invalid input must not be written, found %d rows", n)
	}
	if len(h.events.kinds()) != 0 {
		t.Errorf("no event expected, got %v", h.events.kinds())
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tx := h.mustCreate(t, expense("u1", "Food", 100, testNow))
	tx.Amount = cents(250)
	if _, err := h.txs.Update(ctx, tx); err != nil {
		t.Fatal(err)
	}
	if err := h.txs.Delete(ctx, "u1", tx.ID); err != nil {
		t.Fatal(err)
	}

	want := []amqp.EventKind{amqp.TransactionCreated, amqp.TransactionUpdated, amqp.TransactionDeleted}
	if got := h.events.kinds(); !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	updated := h.events.events[1]
	if updated.Previous == nil || updated.Previous.Amount.Cents != 100 || updated.Transaction.Amount.Cents != 250 {
		t.Errorf("update event = %+v", updated)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	h := newHarness(t)
	h.events.err = errors.New("broker down")

	tx, err := h.txs.Create(context.Background(), expense("u1", "Food", 100, testNow))
	if err != nil {
		t.Fatalf("Create() error = %v, want nil when publishing fails", err)
	}
	if tx.ID == "" {
		t.Error("created transaction should have an id")
	}
}

func TestNilPublisher(t *testing.T) {
	h := newHarness(t)
	h.txs.events = nil
	if _, err := h.txs.Create(context.Background(), expense("u1", "Food", 100, testNow)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestForeignTransactionIsNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tx := h.mustCreate(t, expense("u1", "Food", 100, testNow))

	var nf *core.NotFoundError
	if _, err := h.txs.Get(ctx, "u2", tx.ID); !errors.As(err, &nf) {
		t.Errorf("Get() error = %v, want not found", err)
	}
	foreign := tx
	foreign.UserID = "u2"
	if _, err := h.txs.Update(ctx, foreign); !errors.As(err, &nf) {
		t.Errorf("Update() error = %v, want not found", err)
	}
	if err := h.txs.Delete(ctx, "u2", tx.ID); !errors.As(err, &nf) {
		t.Errorf("Delete() error = %v, want not found", err)
	}
}

func TestListPaging(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		tx := expense("u1", "Food", int64(100+i), testNow.Add(-time.Duration(i)*time.Hour))
		tx.Title = fmt.Sprintf("item %02d", i)
		h.mustCreate(t, tx)
	}

	first, err := h.txs.List(ctx, "u1", ListParams{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(first.Transactions) != 15 || first.Total != 20 || first.TotalPages != 2 {
		t.Errorf("page 1 = %d rows, total %d, pages %d", len(first.Transactions), first.Total, first.TotalPages)
	}
	if first.Page != 1 || !first.HasNext || first.HasPrev {
		t.Errorf("page 1 flags = %+v", first)
	}
	if first.Transactions[0].Title != "item 00" {
		t.Errorf("newest first expected, got %q", first.Transactions[0].Title)
	}

	second, _ := h.txs.List(ctx, "u1", ListParams{Page: 2})
	if len(second.Transactions) != 5 || second.HasNext || !second.HasPrev {
		t.Errorf("page 2 = %d rows, next %v, prev %v", len(second.Transactions), second.HasNext, second.HasPrev)
	}

	empty, _ := h.txs.List(ctx, "nobody", ListParams{Page: -3})
	if empty.Page != 1 || empty.TotalPages != 1 || len(empty.Transactions) != 0 {
		t.Errorf("empty list = %+v, want page 1 of 1", empty)
	}
}

func TestListFilters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mustCreate(t, core.Transaction{UserID: "u1", Title: "Coffee beans", Amount: cents(900), Type: core.Expense, Category: "Food", Date: testNow})
	h.mustCreate(t, core.Transaction{UserID: "u1", Title: "Train ticket", Amount: cents(2500), Type: core.Expense, Category: "Transport", Date: testNow.AddDate(0, 0, -2)})
	h.mustCreate(t, core.Transaction{UserID: "u1", Title: "Salary", Amount: cents(300000), Type: core.Income, Category: "Work", Date: testNow.AddDate(0, 0, -10)})
	h.mustCreate(t, core.Transaction{UserID: "u1", Title: "Old coffee", Amount: cents(500), Type: core.Expense, Category: "Food", Date: testNow.AddDate(0, -2, 0)})

	tests := []struct {
		name   string
		params ListParams
		want   []string
	}{
		{"no filters", ListParams{}, []string{"Coffee beans", "Train ticket", "Salary", "Old coffee"}},
		{"search", ListParams{Search: "COFFEE"}, []string{"Coffee beans", "Old coffee"}},
		{"this month", ListParams{DateRange: "thisMonth"}, []string{"Coffee beans", "Train ticket", "Salary"}},
		{"last 30 days expenses", ListParams{DateRange: "last30days", Type: "Expense"}, []string{"Coffee beans", "Train ticket"}},
		{"type all", ListParams{Type: "All", Category: "Food"}, []string{"Coffee beans", "Old coffee"}},
		{"all categories ignored", ListParams{Category: AllCategories, Type: "income"}, []string{"Salary"}},
		{"amount high to low", ListParams{Type: "expense", SortBy: "amountHighToLow"}, []string{"Train ticket", "Coffee beans", "Old coffee"}},
		{"oldest first", ListParams{Category: "Food", SortBy: "oldestFirst"}, []string{"Old coffee", "Coffee beans"}},
		{"custom range", ListParams{DateRange: "customRange", CustomFrom: testNow.AddDate(0, 0, -2), CustomTo: testNow.AddDate(0, 0, -2)}, []string{"Train ticket"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := h.txs.List(ctx, "u1", tt.params)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			got := make([]string, 0, len(page.Transactions))
			for _, tx := range page.Transactions {
				got = append(got, tx.Title)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("titles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListRejectsBadFilters(t *testing.T) {
	h := newHarness(t)
	var vErr *core.ValidationError

	if _, err := h.txs.List(context.Background(), "u1", ListParams{DateRange: "lastCentury"}); !errors.As(err, &vErr) {
		t.Errorf("unknown range error = %v, want validation error", err)
	}
	if _, err := h.txs.List(context.Background(), "u1", ListParams{Type: "transfer"}); !errors.As(err, &vErr) {
		t.Errorf("unknown type error = %v, want validation error", err)
	}
}
