// Package storage declares the persistence ports the services depend on.
// Implementations live in the memory, sqlite, mongodb and postgres subpackages.
package storage

import (
	"context"

	"fintrack/internal/core"
)

type (
	// TransactionReader is the read side of the ledger.
	TransactionReader interface {
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		FindTransactions(ctx context.Context, q core.TransactionQuery) ([]core.Transaction, error)
		CountTransactions(ctx context.Context, q core.TransactionQuery) (int, error)
		// SumTransactions ignores the query's sort and paging.
		SumTransactions(ctx context.Context, q core.TransactionQuery) (core.Money, error)
	}

	TransactionWriter interface {
		// InsertTransaction assigns an ID when t.ID is empty and returns the stored record.
		InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	LedgerStore interface {
		TransactionReader
		TransactionWriter
	}

	// BudgetSpentWriter is what the reconciler needs from the budget store.
	BudgetSpentWriter interface {
		FindBudgetByCategory(ctx context.Context, userID, category string) (core.Budget, bool, error)
		// SetBudgetSpent overwrites the cached spent value. It reports false
		// when no budget exists for the pair, which is not an error.
		SetBudgetSpent(ctx context.Context, userID, category string, spent core.Money) (bool, error)
	}

	BudgetStore interface {
		BudgetSpentWriter
		// CreateBudget returns *core.ConflictError when the user already has a budget for the category.
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, userID, id string) error
		// ListBudgetOwners returns every user ID that owns at least one budget.
		ListBudgetOwners(ctx context.Context) ([]string, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		GetGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error)
		ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)
		// AddGoalFunds increments CurrentAmount and returns the updated goal.
		AddGoalFunds(ctx context.Context, userID, id string, amount core.Money) (core.SavingsGoal, error)
		DeleteGoal(ctx context.Context, userID, id string) error
	}

	UserStore interface {
		// CreateUser returns *core.ConflictError when the email is taken.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		// UpdateUser writes the profile fields: names and monthly income.
		UpdateUser(ctx context.Context, u core.User) error
	}

	// Store is a complete backend.
	Store interface {
		LedgerStore
		BudgetStore
		GoalStore
		UserStore
		Ping(ctx context.Context) error
		Close() error
	}
)
