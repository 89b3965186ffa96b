package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// MetricsEngine derives balances and aggregates from the ledger. Every
// aggregate over an empty set is zero.
type MetricsEngine struct {
	ledger storage.TransactionReader
	users  storage.UserStore
}

func NewMetricsEngine(ledger storage.TransactionReader, users storage.UserStore) *MetricsEngine {
	return &MetricsEngine{ledger: ledger, users: users}
}

// ComputeBalance is MonthlyIncome x months since sign-up plus all recorded
// income minus all recorded expenses.
func (m *MetricsEngine) ComputeBalance(ctx context.Context, userID string, asOf time.Time) (core.Money, error) {
	user, err := m.users.GetUser(ctx, userID)
	if err != nil {
		return core.Money{}, fmt.Errorf("load user: %w", err)
	}

	totals, err := m.totals(ctx, core.NewQuery(userID))
	if err != nil {
		return core.Money{}, err
	}

	months := core.MonthsElapsed(user.CreatedAt, asOf)
	return core.Balance(user.MonthlyIncome, months, totals.Income, totals.Expenses), nil
}

// ComputeMonthlyIncomeExpense sums the calendar month containing month.
func (m *MetricsEngine) ComputeMonthlyIncomeExpense(ctx context.Context, userID string, month time.Time) (core.IncomeExpense, error) {
	start, end := core.MonthBounds(month)
	return m.totals(ctx, core.NewQuery(userID).Between(start, end))
}

// ComputeTotals sums income and expenses dated on or after periodStart.
func (m *MetricsEngine) ComputeTotals(ctx context.Context, userID string, periodStart time.Time) (core.IncomeExpense, error) {
	return m.totals(ctx, core.NewQuery(userID).Since(periodStart))
}

func (m *MetricsEngine) totals(ctx context.Context, base core.TransactionQuery) (core.IncomeExpense, error) {
	income, err := m.ledger.SumTransactions(ctx, base.OfType(core.Income))
	if err != nil {
		return core.IncomeExpense{}, fmt.Errorf("sum income: %w", err)
	}
	expenses, err := m.ledger.SumTransactions(ctx, base.OfType(core.Expense))
	if err != nil {
		return core.IncomeExpense{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.IncomeExpense{Income: income, Expenses: expenses}, nil
}

func (m *MetricsEngine) ComputeExpenseBreakdown(ctx context.Context, userID string, periodStart time.Time) ([]core.CategoryAmount, error) {
	txs, err := m.ledger.FindTransactions(ctx, core.NewQuery(userID).Since(periodStart).OfType(core.Expense))
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return core.ExpenseBreakdown(txs), nil
}

// ComputeMonthlyTrends buckets by month in periodStart's location.
func (m *MetricsEngine) ComputeMonthlyTrends(ctx context.Context, userID string, periodStart time.Time) (core.MonthlyTrends, error) {
	txs, err := m.ledger.FindTransactions(ctx, core.NewQuery(userID).Since(periodStart))
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return core.Trends(txs, periodStart.Location()), nil
}
