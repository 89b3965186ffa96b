package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/report"
	"fintrack/internal/storage/memory"
)

func seedUser(t *testing.T, store *memory.Store, monthlyIncome int64, createdAt time.Time) core.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), core.User{
		Email:         "ada@example.com",
		PasswordHash:  "x",
		Firstname:     "Ada",
		Lastname:      "Lovelace",
		MonthlyIncome: cents(monthlyIncome),
		CreatedAt:     createdAt,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func insertAll(t *testing.T, store *memory.Store, txs ...core.Transaction) {
	t.Helper()
	for _, tx := range txs {
		if _, err := store.InsertTransaction(context.Background(), tx); err != nil {
			t.Fatalf("insert %q: %v", tx.Title, err)
		}
	}
}

func TestScenarioBalanceOverTwoMonths(t *testing.T) {
	store := memory.New()
	u := seedUser(t, store, 100000, time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC))
	insertAll(t, store,
		income(u.ID, 20000, testNow),
		income(u.ID, 10000, testNow.AddDate(0, -2, 0)),
		expense(u.ID, "Food", 6000, testNow),
		expense(u.ID, "Fun", 4000, testNow.AddDate(-1, 0, 0)),
	)

	m := NewMetricsEngine(store, store)
	balance, err := m.ComputeBalance(context.Background(), u.ID, testNow)
	if err != nil {
		t.Fatalf("ComputeBalance() error = %v", err)
	}
	if balance.Cents != 220000 {
		t.Errorf("balance = %s, want 2200.00", balance)
	}
}

func TestBalanceForNewAccount(t *testing.T) {
	store := memory.New()
	u := seedUser(t, store, 50000, testNow.Add(-time.Hour))

	balance, err := NewMetricsEngine(store, store).ComputeBalance(context.Background(), u.ID, testNow)
	if err != nil {
		t.Fatalf("ComputeBalance() error = %v", err)
	}
	if balance.Cents != 50000 {
		t.Errorf("balance = %s, want one month of income", balance)
	}
}

func TestBalanceUnknownUser(t *testing.T) {
	store := memory.New()
	_, err := NewMetricsEngine(store, store).ComputeBalance(context.Background(), "ghost", testNow)
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("ComputeBalance() error = %v, want not found", err)
	}
}

func TestMonthlyIncomeExpenseBoundaries(t *testing.T) {
	store := memory.New()
	start, end := core.MonthBounds(testNow)
	insertAll(t, store,
		income("u1", 1000, start),
		income("u1", 2000, end),
		expense("u1", "Food", 300, end),
		expense("u1", "Food", 400, start.Add(-time.Millisecond)),
		income("u1", 8000, end.Add(time.Millisecond)),
	)

	got, err := NewMetricsEngine(store, store).ComputeMonthlyIncomeExpense(context.Background(), "u1", testNow)
	if err != nil {
		t.Fatalf("ComputeMonthlyIncomeExpense() error = %v", err)
	}
	if got.Income.Cents != 3000 || got.Expenses.Cents != 300 {
		t.Errorf("month = %+v, want income 3000 expenses 300", got)
	}
}

func TestAggregatesOverEmptyLedger(t *testing.T) {
	store := memory.New()
	m := NewMetricsEngine(store, store)
	ctx := context.Background()

	ie, err := m.ComputeMonthlyIncomeExpense(ctx, "u1", testNow)
	if err != nil || !ie.Income.IsZero() || !ie.Expenses.IsZero() {
		t.Errorf("monthly = %+v, %v", ie, err)
	}
	breakdown, err := m.ComputeExpenseBreakdown(ctx, "u1", testNow)
	if err != nil || len(breakdown) != 0 {
		t.Errorf("breakdown = %v, %v", breakdown, err)
	}
	trends, err := m.ComputeMonthlyTrends(ctx, "u1", testNow)
	if err != nil || len(trends) != 0 {
		t.Errorf("trends = %v, %v", trends, err)
	}
}

func TestDashboardMetrics(t *testing.T) {
	store := memory.New()
	u := seedUser(t, store, 100000, testNow)
	for i := 0; i < 7; i++ {
		insertAll(t, store, expense(u.ID, "Food", 1000, testNow.AddDate(0, 0, -i)))
	}
	insertAll(t, store, income(u.ID, 50000, testNow.AddDate(0, 0, -1)))

	d := NewDashboard(NewMetricsEngine(store, store), store)
	d.now = fixedNow

	got, err := d.GetDashboardMetrics(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetDashboardMetrics() error = %v", err)
	}
	if got.MonthlyIncome.Cents != 50000 || got.MonthlyExpenses.Cents != 7000 || got.MonthlySavings.Cents != 43000 {
		t.Errorf("monthly figures = %+v", got)
	}
	if got.Balance.Cents != 100000+50000-7000 {
		t.Errorf("balance = %s", got.Balance)
	}
	if len(got.RecentTransactions) != 5 {
		t.Fatalf("recent = %d, want 5", len(got.RecentTransactions))
	}
	if !got.RecentTransactions[0].Date.Equal(testNow) {
		t.Errorf("recent should start with the newest, got %v", got.RecentTransactions[0].Date)
	}
}

func TestReportSummary(t *testing.T) {
	store := memory.New()
	insertAll(t, store,
		income("u1", 300000, time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)),
		income("u1", 200000, time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)),
		expense("u1", "Rent", 150000, time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)),
		expense("u1", "Food", 25000, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)),
		expense("u1", "Food", 25000, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)),
		expense("u1", "Old", 99999, time.Date(2024, 11, 30, 23, 59, 59, 0, time.UTC)),
	)

	s := NewReportService(NewMetricsEngine(store, store), report.DefaultRenderers())
	s.now = fixedNow

	got, err := s.GetReportSummary(context.Background(), "u1", time.Time{})
	if err != nil {
		t.Fatalf("GetReportSummary() error = %v", err)
	}

	if want := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC); !got.PeriodStart.Equal(want) {
		t.Errorf("period start = %v, want %v", got.PeriodStart, want)
	}
	if got.TotalIncome.Cents != 500000 || got.TotalExpenses.Cents != 200000 || got.NetSavings.Cents != 300000 {
		t.Errorf("totals = %s / %s / %s", got.TotalIncome, got.TotalExpenses, got.NetSavings)
	}
	if got.SavingsRate != "60.0%" {
		t.Errorf("savings rate = %q, want 60.0%%", got.SavingsRate)
	}
	if len(got.ExpenseBreakdown) != 2 || got.ExpenseBreakdown[0].Category != "Rent" || got.ExpenseBreakdown[1].Total.Cents != 50000 {
		t.Errorf("breakdown = %+v", got.ExpenseBreakdown)
	}
	wantKeys := []string{"2024-12", "2025-01", "2025-03"}
	keys := got.MonthlyTrends.Keys()
	if len(keys) != len(wantKeys) {
		t.Fatalf("trend keys = %v, want %v", keys, wantKeys)
	}
	for i := range keys {
		if keys[i] != wantKeys[i] {
			t.Errorf("trend keys = %v, want %v", keys, wantKeys)
		}
	}
	if dec := got.MonthlyTrends["2024-12"]; !dec.Income.IsZero() || dec.Expenses.Cents != 25000 {
		t.Errorf("december = %+v, want income 0", dec)
	}
}

func TestReportSavingsRateWithoutIncome(t *testing.T) {
	store := memory.New()
	insertAll(t, store, expense("u1", "Food", 100, testNow))
	s := NewReportService(NewMetricsEngine(store, store), report.DefaultRenderers())
	s.now = fixedNow

	got, err := s.GetReportSummary(context.Background(), "u1", time.Time{})
	if err != nil {
		t.Fatalf("GetReportSummary() error = %v", err)
	}
	if got.SavingsRate != "0%" {
		t.Errorf("savings rate = %q, want 0%%", got.SavingsRate)
	}
}
