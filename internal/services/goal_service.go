package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type GoalService struct {
	goals storage.GoalStore
	now   func() time.Time
}

func NewGoalService(goals storage.GoalStore) *GoalService {
	return &GoalService{goals: goals, now: time.Now}
}

// GetGoalSummary totals the user's goals. A goal is active while its
// current amount is below its target.
func (s *GoalService) GetGoalSummary(ctx context.Context, userID string) (core.GoalSummary, error) {
	goals, err := s.goals.ListGoals(ctx, userID)
	if err != nil {
		return core.GoalSummary{}, fmt.Errorf("list goals: %w", err)
	}
	return core.SummarizeGoals(goals, s.now()), nil
}

func (s *GoalService) Create(ctx context.Context, g core.SavingsGoal) (core.GoalView, error) {
	g.ID = ""
	if err := g.Validate(); err != nil {
		return core.GoalView{}, err
	}
	saved, err := s.goals.CreateGoal(ctx, g)
	if err != nil {
		return core.GoalView{}, fmt.Errorf("create goal: %w", err)
	}
	return saved.View(s.now()), nil
}

func (s *GoalService) Get(ctx context.Context, userID, id string) (core.GoalView, error) {
	g, err := s.goals.GetGoal(ctx, userID, id)
	if err != nil {
		return core.GoalView{}, err
	}
	return g.View(s.now()), nil
}

// AddFunds deposits a positive amount into a goal.
func (s *GoalService) AddFunds(ctx context.Context, userID, id string, amount core.Money) (core.GoalView, error) {
	if !amount.IsPositive() {
		return core.GoalView{}, &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	g, err := s.goals.AddGoalFunds(ctx, userID, id, amount)
	if err != nil {
		return core.GoalView{}, err
	}
	return g.View(s.now()), nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	return s.goals.DeleteGoal(ctx, userID, id)
}
