package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const recentTransactions = 5

type Dashboard struct {
	metrics *MetricsEngine
	ledger  storage.TransactionReader
	now     func() time.Time
}

func NewDashboard(metrics *MetricsEngine, ledger storage.TransactionReader) *Dashboard {
	return &Dashboard{metrics: metrics, ledger: ledger, now: time.Now}
}

// GetDashboardMetrics runs the independent reads concurrently.
func (d *Dashboard) GetDashboardMetrics(ctx context.Context, userID string) (core.DashboardMetrics, error) {
	now := d.now()

	var (
		balance core.Money
		month   core.IncomeExpense
		recent  []core.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = d.metrics.ComputeBalance(gctx, userID, now)
		return err
	})
	g.Go(func() error {
		var err error
		month, err = d.metrics.ComputeMonthlyIncomeExpense(gctx, userID, now)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = d.ledger.FindTransactions(gctx, core.NewQuery(userID).Page(0, recentTransactions))
		return err
	})
	if err := g.Wait(); err != nil {
		return core.DashboardMetrics{}, fmt.Errorf("dashboard metrics: %w", err)
	}

	return core.DashboardMetrics{
		Balance:            balance,
		MonthlyIncome:      month.Income,
		MonthlyExpenses:    month.Expenses,
		MonthlySavings:     month.Net(),
		RecentTransactions: recent,
	}, nil
}
