package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type BudgetService struct {
	budgets    storage.BudgetStore
	reconciler *Reconciler
	now        func() time.Time
}

func NewBudgetService(budgets storage.BudgetStore, reconciler *Reconciler) *BudgetService {
	return &BudgetService{budgets: budgets, reconciler: reconciler, now: time.Now}
}

// GetBudgetsWithCalculations lists the user's budgets with remaining and
// percentage used derived from the cached spent value.
func (s *BudgetService) GetBudgetsWithCalculations(ctx context.Context, userID string) ([]core.BudgetView, error) {
	budgets, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.BudgetView, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, b.View())
	}
	return out, nil
}

// Create stores a budget and reconciles it at once so existing expenses
// of the month count against it.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.BudgetView, error) {
	b.ID = ""
	b.Category = strings.TrimSpace(b.Category)
	b.Spent = core.Money{}
	if b.Period == "" {
		b.Period = core.Monthly
	}
	if b.StartDate.IsZero() {
		b.StartDate = s.now()
	}
	if err := b.Validate(); err != nil {
		return core.BudgetView{}, err
	}

	saved, err := s.budgets.CreateBudget(ctx, b)
	if err != nil {
		return core.BudgetView{}, err
	}

	s.reconciler.reconcileBestEffort(ctx, saved.UserID, saved.Category)

	slog.InfoContext(ctx, "Budget created",
		"id", saved.ID,
		"user_id", saved.UserID,
		"category", saved.Category,
		"amount_cents", saved.Amount.Cents)

	return s.view(ctx, saved.UserID, saved.ID)
}

// Update changes amount, period, description or category. A category
// change takes the spent value of the new category.
func (s *BudgetService) Update(ctx context.Context, b core.Budget) (core.BudgetView, error) {
	existing, err := s.budgets.GetBudget(ctx, b.UserID, b.ID)
	if err != nil {
		return core.BudgetView{}, err
	}

	existing.Category = strings.TrimSpace(b.Category)
	existing.Amount = b.Amount
	existing.Description = b.Description
	if b.Period != "" {
		existing.Period = b.Period
	}
	if err := existing.Validate(); err != nil {
		return core.BudgetView{}, err
	}

	if err := s.budgets.UpdateBudget(ctx, existing); err != nil {
		return core.BudgetView{}, err
	}

	s.reconciler.reconcileBestEffort(ctx, existing.UserID, existing.Category)
	return s.view(ctx, existing.UserID, existing.ID)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	return s.budgets.DeleteBudget(ctx, userID, id)
}

func (s *BudgetService) Get(ctx context.Context, userID, id string) (core.BudgetView, error) {
	return s.view(ctx, userID, id)
}

// Recompute repairs every budget of the user from the ledger.
func (s *BudgetService) Recompute(ctx context.Context, userID string) ([]core.BudgetView, error) {
	if _, err := s.reconciler.RecomputeUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("recompute budgets: %w", err)
	}
	return s.GetBudgetsWithCalculations(ctx, userID)
}

func (s *BudgetService) view(ctx context.Context, userID, id string) (core.BudgetView, error) {
	b, err := s.budgets.GetBudget(ctx, userID, id)
	if err != nil {
		return core.BudgetView{}, err
	}
	return b.View(), nil
}
