// Package seed fills a store with a demo user and plausible fake finances.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

var (
	expenseCategories = []string{"Food", "Transport", "Utilities", "Entertainment", "Health", "Shopping"}
	budgetCategories  = []string{"Food", "Transport", "Entertainment"}
)

type Options struct {
	// Email and Password default to generated values when blank.
	Email                string
	Password             string
	Months               int
	TransactionsPerMonth int
	Goals                int
	Seed                 int64
	Now                  time.Time
}

type Result struct {
	UserID       string
	Email        string
	Password     string
	Transactions int
	Budgets      int
	Goals        int
}

type Seeder struct {
	auth         *auth.Service
	transactions *services.TransactionService
	budgets      *services.BudgetService
	goals        *services.GoalService
}

func NewSeeder(a *auth.Service, tx *services.TransactionService, budgets *services.BudgetService, goals *services.GoalService) *Seeder {
	return &Seeder{auth: a, transactions: tx, budgets: budgets, goals: goals}
}

// Run registers the demo user, then writes budgets first so every seeded
// expense goes through reconciliation, then transactions and goals.
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Months <= 0 {
		opts.Months = 6
	}
	if opts.TransactionsPerMonth < 0 {
		opts.TransactionsPerMonth = 0
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	f := gofakeit.New(opts.Seed)

	if opts.Email == "" {
		opts.Email = f.Email()
	}
	if opts.Password == "" {
		opts.Password = f.Password(true, true, true, false, false, 12)
	}

	income := money(f.Price(2000, 4500))
	user, err := s.auth.Register(ctx, auth.Registration{
		Email:         opts.Email,
		Password:      opts.Password,
		Firstname:     f.FirstName(),
		Lastname:      f.LastName(),
		MonthlyIncome: income,
	})
	if err != nil {
		return Result{}, fmt.Errorf("register demo user: %w", err)
	}
	res := Result{UserID: user.ID, Email: user.Email, Password: opts.Password}

	for _, cat := range budgetCategories {
		_, err := s.budgets.Create(ctx, core.Budget{
			UserID:      user.ID,
			Category:    cat,
			Amount:      money(float64(f.Number(2, 8) * 100)),
			Period:      core.Monthly,
			Description: f.Sentence(4),
		})
		if err != nil {
			return res, fmt.Errorf("create %s budget: %w", cat, err)
		}
		res.Budgets++
	}

	for i := 0; i < opts.Months; i++ {
		start, end := core.MonthBounds(opts.Now.AddDate(0, -i, 0))
		if end.After(opts.Now) {
			end = opts.Now
		}

		txs := []core.Transaction{
			{Title: "Salary", Amount: income, Type: core.Income, Category: "Salary", Date: start.Add(9 * time.Hour)},
			{Title: "Rent", Amount: money(f.Price(600, 1200)), Type: core.Expense, Category: "Housing", Date: start.Add(10 * time.Hour)},
		}
		for j := 0; j < opts.TransactionsPerMonth; j++ {
			txs = append(txs, core.Transaction{
				Title:    f.Company(),
				Amount:   money(f.Price(3, 150)),
				Type:     core.Expense,
				Category: f.RandomString(expenseCategories),
				Date:     f.DateRange(start, end),
				Note:     f.Sentence(5),
			})
		}

		for _, tx := range txs {
			tx.UserID = user.ID
			if tx.Date.After(opts.Now) {
				tx.Date = opts.Now
			}
			if _, err := s.transactions.Create(ctx, tx); err != nil {
				return res, fmt.Errorf("create transaction %q: %w", tx.Title, err)
			}
			res.Transactions++
		}
	}

	for i := 0; i < opts.Goals; i++ {
		target := money(float64(f.Number(10, 50) * 100))
		_, err := s.goals.Create(ctx, core.SavingsGoal{
			UserID:              user.ID,
			Name:                f.BuzzWord() + " fund",
			TargetAmount:        target,
			CurrentAmount:       core.Cents(target.Cents * int64(f.Number(0, 90)) / 100),
			TargetDate:          opts.Now.AddDate(0, f.Number(6, 24), 0),
			MonthlyContribution: money(float64(f.Number(1, 4) * 50)),
		})
		if err != nil {
			return res, fmt.Errorf("create goal: %w", err)
		}
		res.Goals++
	}

	slog.InfoContext(ctx, "Demo data seeded",
		"user_id", res.UserID,
		"transactions", res.Transactions,
		"budgets", res.Budgets,
		"goals", res.Goals)
	return res, nil
}

func money(v float64) core.Money {
	return core.MoneyFromDecimal(decimal.NewFromFloat(v))
}
