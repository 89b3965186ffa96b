package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Monthly BudgetPeriod = "monthly"
	Yearly  BudgetPeriod = "yearly"
)

type (
	TransactionType string

	BudgetPeriod string

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID       string          `json:"id"`
		UserID   string          `json:"userId"`
		Title    string          `json:"title"`
		Amount   Money           `json:"amount"`
		Type     TransactionType `json:"type"`
		Category string          `json:"category"`
		Date     time.Time       `json:"date"`
		Note     string          `json:"note,omitempty"`
	}

	// Budget.Spent is a cache of the current month's expenses in Category.
	// It is refreshed by the reconciler and can always be rebuilt from the ledger.
	Budget struct {
		ID          string       `json:"id"`
		UserID      string       `json:"userId"`
		Category    string       `json:"category"`
		Amount      Money        `json:"amount"`
		Spent       Money        `json:"spent"`
		Period      BudgetPeriod `json:"period"`
		StartDate   time.Time    `json:"startDate"`
		Description string       `json:"description,omitempty"`
	}

	SavingsGoal struct {
		ID                  string    `json:"id"`
		UserID              string    `json:"userId"`
		Name                string    `json:"name"`
		TargetAmount        Money     `json:"targetAmount"`
		CurrentAmount       Money     `json:"currentAmount"`
		TargetDate          time.Time `json:"targetDate"`
		MonthlyContribution Money     `json:"monthlyContribution"`
		Description         string    `json:"description,omitempty"`
	}

	User struct {
		ID            string    `json:"id"`
		Email         string    `json:"email"`
		PasswordHash  string    `json:"-"`
		Firstname     string    `json:"firstname"`
		Lastname      string    `json:"lastname"`
		MonthlyIncome Money     `json:"monthlyIncome"`
		CreatedAt     time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyTitle          = errors.New("empty title")
	ErrTitleTooLong        = errors.New("title too long (max 200 characters)")
	ErrEmptyCategory       = errors.New("empty category")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidPeriod       = errors.New("invalid budget period")
	ErrEmptyDate           = errors.New("date cannot be zero")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidTargetAmount = errors.New("target amount must be greater than zero")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrEmptyPassword       = errors.New("empty password")
	ErrPasswordTooLong     = errors.New("password too long (max 72 bytes)")
	ErrEmptyFirstname      = errors.New("empty firstname")
	ErrEmptyLastname       = errors.New("empty lastname")
)

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (p BudgetPeriod) IsValid() bool {
	return p == Monthly || p == Yearly
}

// ParseTransactionType accepts the stored names plus the "+"/"-" shorthand.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "+":
		return Income, nil
	case "expense", "-":
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

func ParseBudgetPeriod(s string) (BudgetPeriod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// IsExpense reports whether the transaction counts against budgets.
func (t Transaction) IsExpense() bool {
	return t.Type == Expense
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Err: ErrEmptyTitle}
	}
	if len(t.Title) > 200 {
		return &ValidationError{Field: "title", Err: ErrTitleTooLong}
	}
	if t.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if !t.Type.IsValid() {
		return &ValidationError{Field: "type", Err: ErrInvalidType}
	}
	if strings.TrimSpace(t.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Err: ErrEmptyDate}
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if b.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if !b.Period.IsValid() {
		return &ValidationError{Field: "period", Err: ErrInvalidPeriod}
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if !g.TargetAmount.IsPositive() {
		return &ValidationError{Field: "targetAmount", Err: ErrInvalidTargetAmount}
	}
	if g.CurrentAmount.IsNegative() {
		return &ValidationError{Field: "currentAmount", Err: ErrInvalidAmount}
	}
	if g.MonthlyContribution.IsNegative() {
		return &ValidationError{Field: "monthlyContribution", Err: ErrInvalidAmount}
	}
	if g.TargetDate.IsZero() {
		return &ValidationError{Field: "targetDate", Err: ErrEmptyDate}
	}
	return nil
}

func (u User) Validate() error {
	if _, err := mail.ParseAddress(u.Email); err != nil || strings.TrimSpace(u.Email) == "" {
		return &ValidationError{Field: "email", Err: ErrInvalidEmail}
	}
	if strings.TrimSpace(u.Firstname) == "" {
		return &ValidationError{Field: "firstname", Err: ErrEmptyFirstname}
	}
	if strings.TrimSpace(u.Lastname) == "" {
		return &ValidationError{Field: "lastname", Err: ErrEmptyLastname}
	}
	if u.MonthlyIncome.IsNegative() {
		return &ValidationError{Field: "monthlyIncome", Err: ErrInvalidAmount}
	}
	return nil
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
