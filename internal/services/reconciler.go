package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Reconciler keeps Budget.Spent equal to the current month's expenses in the
// budget's category. Yearly budgets use the same monthly window.
type Reconciler struct {
	ledger  storage.TransactionReader
	budgets storage.BudgetStore
	now     func() time.Time
}

func NewReconciler(ledger storage.TransactionReader, budgets storage.BudgetStore) *Reconciler {
	return &Reconciler{
		ledger:  ledger,
		budgets: budgets,
		now:     time.Now,
	}
}

// WithClock returns a copy of the reconciler that reads the current period from now.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	next := *r
	next.now = now
	return &next
}

// Reconcile recomputes spent for one (user, category) pair. A category
// without a budget is a no-op.
func (r *Reconciler) Reconcile(ctx context.Context, userID, category string) error {
	start, end := core.MonthBounds(r.now())
	q := core.NewQuery(userID).
		Between(start, end).
		OfType(core.Expense).
		InCategory(category)

	spent, err := r.ledger.SumTransactions(ctx, q)
	if err != nil {
		return &core.ReconciliationError{UserID: userID, Category: category, Err: fmt.Errorf("sum expenses: %w", err)}
	}

	found, err := r.budgets.SetBudgetSpent(ctx, userID, category, spent)
	if err != nil {
		return &core.ReconciliationError{UserID: userID, Category: category, Err: fmt.Errorf("write spent: %w", err)}
	}
	if found {
		slog.DebugContext(ctx, "Budget reconciled",
			"user_id", userID,
			"category", category,
			"spent_cents", spent.Cents)
	}
	return nil
}

// reconcileBestEffort logs failures instead of returning them; the ledger
// write that triggered it has already succeeded.
func (r *Reconciler) reconcileBestEffort(ctx context.Context, userID, category string) {
	if err := r.Reconcile(ctx, userID, category); err != nil {
		slog.ErrorContext(ctx, "Budget reconciliation failed",
			"user_id", userID,
			"category", category,
			"error", err)
	}
}

func (r *Reconciler) OnTransactionCreated(ctx context.Context, tx core.Transaction) {
	if tx.IsExpense() {
		r.reconcileBestEffort(ctx, tx.UserID, tx.Category)
	}
}

// OnTransactionUpdated reconciles the category the expense left and the one
// it entered. An income turned into an expense in the same category is
// reconciled once through the second branch.
func (r *Reconciler) OnTransactionUpdated(ctx context.Context, old, updated core.Transaction) {
	if old.IsExpense() {
		r.reconcileBestEffort(ctx, old.UserID, old.Category)
	}
	if updated.IsExpense() && (updated.Category != old.Category || !old.IsExpense()) {
		r.reconcileBestEffort(ctx, updated.UserID, updated.Category)
	}
}

func (r *Reconciler) OnTransactionDeleted(ctx context.Context, old core.Transaction) {
	if old.IsExpense() {
		r.reconcileBestEffort(ctx, old.UserID, old.Category)
	}
}

// RecomputeUser reconciles every budget the user owns and returns how many
// were processed. Failures do not stop the walk.
func (r *Reconciler) RecomputeUser(ctx context.Context, userID string) (int, error) {
	budgets, err := r.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list budgets: %w", err)
	}

	var errs []error
	done := 0
	for _, b := range budgets {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := r.Reconcile(ctx, userID, b.Category); err != nil {
			errs = append(errs, err)
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

// RepairReport summarizes a RecomputeAll run.
type RepairReport struct {
	Users   int
	Budgets int
	Failed  int
}

// RecomputeAll walks every budget owner. It returns the joined errors of
// the users that could not be fully repaired.
func (r *Reconciler) RecomputeAll(ctx context.Context) (RepairReport, error) {
	var report RepairReport

	owners, err := r.budgets.ListBudgetOwners(ctx)
	if err != nil {
		return report, fmt.Errorf("list budget owners: %w", err)
	}

	var errs []error
	for _, userID := range owners {
		n, err := r.RecomputeUser(ctx, userID)
		report.Users++
		report.Budgets += n
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
		}
	}

	slog.InfoContext(ctx, "Budget repair finished",
		"users", report.Users,
		"budgets", report.Budgets,
		"failed_users", report.Failed)

	return report, errors.Join(errs...)
}
