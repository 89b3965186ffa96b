package core

import (
	"math"
	"sort"
	"time"
)

type (
	IncomeExpense struct {
		Income   Money `json:"income"`
		Expenses Money `json:"expenses"`
	}

	CategoryAmount struct {
		Category string `json:"category"`
		Total    Money  `json:"total"`
	}

	// MonthlyTrends maps a "YYYY-MM" key to that month's totals.
	MonthlyTrends map[string]IncomeExpense

	DashboardMetrics struct {
		Balance            Money         `json:"balance"`
		MonthlyIncome      Money         `json:"monthlyIncome"`
		MonthlyExpenses    Money         `json:"monthlyExpenses"`
		MonthlySavings     Money         `json:"monthlySavings"`
		RecentTransactions []Transaction `json:"recentTransactions"`
	}

	BudgetView struct {
		ID             string       `json:"id"`
		Category       string       `json:"category"`
		Amount         Money        `json:"amount"`
		Spent          Money        `json:"spent"`
		Remaining      Money        `json:"remaining"`
		PercentageUsed int64        `json:"percentageUsed"`
		Period         BudgetPeriod `json:"period"`
		Description    string       `json:"description,omitempty"`
	}

	ReportSummary struct {
		PeriodStart      time.Time        `json:"periodStart"`
		TotalIncome      Money            `json:"totalIncome"`
		TotalExpenses    Money            `json:"totalExpenses"`
		NetSavings       Money            `json:"netSavings"`
		SavingsRate      string           `json:"savingsRate"`
		ExpenseBreakdown []CategoryAmount `json:"expenseBreakdown"`
		MonthlyTrends    MonthlyTrends    `json:"monthlyTrends"`
	}

	GoalView struct {
		SavingsGoal
		ProgressPercentage float64 `json:"progressPercentage"`
		RemainingAmount    Money   `json:"remainingAmount"`
		DaysRemaining      int     `json:"daysRemaining"`
	}

	GoalSummary struct {
		TotalSavings    Money      `json:"totalSavings"`
		TotalGoalAmount Money      `json:"totalGoalAmount"`
		ActiveGoalCount int        `json:"activeGoalCount"`
		Goals           []GoalView `json:"goals"`
	}
)

// Net is income minus expenses.
func (ie IncomeExpense) Net() Money {
	return ie.Income.Sub(ie.Expenses)
}

// Keys returns the trend keys in chronological order.
func (mt MonthlyTrends) Keys() []string {
	keys := make([]string, 0, len(mt))
	for k := range mt {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Balance combines the declared monthly income over the elapsed months with
// the all-time ledger totals.
func Balance(monthlyIncome Money, months int, income, expenses Money) Money {
	return monthlyIncome.Mul(int64(months)).Add(income).Sub(expenses)
}

// SavingsRate formats (income-expenses)/income as a one-decimal percentage.
// Zero income yields "0%".
func SavingsRate(income, expenses Money) string {
	if income.IsZero() {
		return "0%"
	}
	net := income.Sub(expenses)
	return Percent(net, income).Round(1).StringFixed(1) + "%"
}

// Remaining is the unspent part of the limit. It goes negative when overspent.
func (b Budget) Remaining() Money {
	return b.Amount.Sub(b.Spent)
}

// PercentageUsed is spent/amount*100 rounded to the nearest integer, or 0 for
// a zero limit. Overspending is reported as is, above 100.
func (b Budget) PercentageUsed() int64 {
	if b.Amount.IsZero() {
		return 0
	}
	return Percent(b.Spent, b.Amount).Round(0).IntPart()
}

func (b Budget) View() BudgetView {
	return BudgetView{
		ID:             b.ID,
		Category:       b.Category,
		Amount:         b.Amount,
		Spent:          b.Spent,
		Remaining:      b.Remaining(),
		PercentageUsed: b.PercentageUsed(),
		Period:         b.Period,
		Description:    b.Description,
	}
}

// ProgressPercentage is current/target*100. Overfunded goals exceed 100.
func (g SavingsGoal) ProgressPercentage() float64 {
	if g.TargetAmount.IsZero() {
		return 0
	}
	return Percent(g.CurrentAmount, g.TargetAmount).InexactFloat64()
}

// RemainingAmount is target minus current, negative when overfunded.
func (g SavingsGoal) RemainingAmount() Money {
	return g.TargetAmount.Sub(g.CurrentAmount)
}

// DaysRemaining rounds the time until TargetDate up to whole days. Past
// target dates give zero or negative values.
func (g SavingsGoal) DaysRemaining(now time.Time) int {
	diff := g.TargetDate.Sub(now)
	return int(math.Ceil(float64(diff) / float64(24*time.Hour)))
}

// IsActive reports whether the goal still needs funds.
func (g SavingsGoal) IsActive() bool {
	return g.CurrentAmount.Cents < g.TargetAmount.Cents
}

func (g SavingsGoal) View(now time.Time) GoalView {
	return GoalView{
		SavingsGoal:        g,
		ProgressPercentage: g.ProgressPercentage(),
		RemainingAmount:    g.RemainingAmount(),
		DaysRemaining:      g.DaysRemaining(now),
	}
}

// SummarizeGoals totals the goals and attaches derived metrics.
func SummarizeGoals(goals []SavingsGoal, now time.Time) GoalSummary {
	summary := GoalSummary{Goals: make([]GoalView, 0, len(goals))}
	for _, g := range goals {
		summary.TotalSavings = summary.TotalSavings.Add(g.CurrentAmount)
		summary.TotalGoalAmount = summary.TotalGoalAmount.Add(g.TargetAmount)
		if g.IsActive() {
			summary.ActiveGoalCount++
		}
		summary.Goals = append(summary.Goals, g.View(now))
	}
	return summary
}

// ExpenseBreakdown groups expenses by category, largest total first.
func ExpenseBreakdown(txs []Transaction) []CategoryAmount {
	totals := make(map[string]int64)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		totals[t.Category] += t.Amount.Cents
	}
	out := make([]CategoryAmount, 0, len(totals))
	for cat, cents := range totals {
		out = append(out, CategoryAmount{Category: cat, Total: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Trends buckets transactions by calendar month and type. Dates are bucketed
// in loc so month boundaries match the caller's calendar.
func Trends(txs []Transaction, loc *time.Location) MonthlyTrends {
	out := make(MonthlyTrends)
	for _, t := range txs {
		key := MonthKey(t.Date.In(loc))
		bucket := out[key]
		switch t.Type {
		case Income:
			bucket.Income = bucket.Income.Add(t.Amount)
		case Expense:
			bucket.Expenses = bucket.Expenses.Add(t.Amount)
		}
		out[key] = bucket
	}
	return out
}

// TotalsByType sums income and expense amounts of txs.
func TotalsByType(txs []Transaction) IncomeExpense {
	var ie IncomeExpense
	for _, t := range txs {
		switch t.Type {
		case Income:
			ie.Income = ie.Income.Add(t.Amount)
		case Expense:
			ie.Expenses = ie.Expenses.Add(t.Amount)
		}
	}
	return ie
}
