package mongodb

import (
	"time"

	"fintrack/internal/core"
)

type transactionDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	Title       string    `bson:"title"`
	AmountCents int64     `bson:"amount_cents"`
	Type        string    `bson:"type"`
	Category    string    `bson:"category"`
	Date        time.Time `bson:"date"`
	Note        string    `bson:"note,omitempty"`
}

type budgetDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	Category    string    `bson:"category"`
	AmountCents int64     `bson:"amount_cents"`
	SpentCents  int64     `bson:"spent_cents"`
	Period      string    `bson:"period"`
	StartDate   time.Time `bson:"start_date"`
	Description string    `bson:"description,omitempty"`
}

type goalDoc struct {
	ID                       string    `bson:"_id"`
	UserID                   string    `bson:"user_id"`
	Name                     string    `bson:"name"`
	TargetAmountCents        int64     `bson:"target_amount_cents"`
	CurrentAmountCents       int64     `bson:"current_amount_cents"`
	TargetDate               time.Time `bson:"target_date"`
	MonthlyContributionCents int64     `bson:"monthly_contribution_cents"`
	Description              string    `bson:"description,omitempty"`
}

type userDoc struct {
	ID                 string    `bson:"_id"`
	Email              string    `bson:"email"`
	PasswordHash       string    `bson:"password_hash"`
	Firstname          string    `bson:"firstname"`
	Lastname           string    `bson:"lastname"`
	MonthlyIncomeCents int64     `bson:"monthly_income_cents"`
	CreatedAt          time.Time `bson:"created_at"`
}

func fromTransaction(t core.Transaction) transactionDoc {
	return transactionDoc{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		AmountCents: t.Amount.Cents,
		Type:        string(t.Type),
		Category:    t.Category,
		Date:        t.Date.UTC(),
		Note:        t.Note,
	}
}

func (d transactionDoc) toCore() core.Transaction {
	return core.Transaction{
		ID:       d.ID,
		UserID:   d.UserID,
		Title:    d.Title,
		Amount:   core.Money{Cents: d.AmountCents},
		Type:     core.TransactionType(d.Type),
		Category: d.Category,
		Date:     d.Date.UTC(),
		Note:     d.Note,
	}
}

func fromBudget(b core.Budget) budgetDoc {
	return budgetDoc{
		ID:          b.ID,
		UserID:      b.UserID,
		Category:    b.Category,
		AmountCents: b.Amount.Cents,
		SpentCents:  b.Spent.Cents,
		Period:      string(b.Period),
		StartDate:   b.StartDate.UTC(),
		Description: b.Description,
	}
}

func (d budgetDoc) toCore() core.Budget {
	return core.Budget{
		ID:          d.ID,
		UserID:      d.UserID,
		Category:    d.Category,
		Amount:      core.Money{Cents: d.AmountCents},
		Spent:       core.Money{Cents: d.SpentCents},
		Period:      core.BudgetPeriod(d.Period),
		StartDate:   d.StartDate.UTC(),
		Description: d.Description,
	}
}

func fromGoal(g core.SavingsGoal) goalDoc {
	return goalDoc{
		ID:                       g.ID,
		UserID:                   g.UserID,
		Name:                     g.Name,
		TargetAmountCents:        g.TargetAmount.Cents,
		CurrentAmountCents:       g.CurrentAmount.Cents,
		TargetDate:               g.TargetDate.UTC(),
		MonthlyContributionCents: g.MonthlyContribution.Cents,
		Description:              g.Description,
	}
}

func (d goalDoc) toCore() core.SavingsGoal {
	return core.SavingsGoal{
		ID:                  d.ID,
		UserID:              d.UserID,
		Name:                d.Name,
		TargetAmount:        core.Money{Cents: d.TargetAmountCents},
		CurrentAmount:       core.Money{Cents: d.CurrentAmountCents},
		TargetDate:          d.TargetDate.UTC(),
		MonthlyContribution: core.Money{Cents: d.MonthlyContributionCents},
		Description:         d.Description,
	}
}

func fromUser(u core.User) userDoc {
	return userDoc{
		ID:                 u.ID,
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		Firstname:          u.Firstname,
		Lastname:           u.Lastname,
		MonthlyIncomeCents: u.MonthlyIncome.Cents,
		CreatedAt:          u.CreatedAt.UTC(),
	}
}

func (d userDoc) toCore() core.User {
	return core.User{
		ID:            d.ID,
		Email:         d.Email,
		PasswordHash:  d.PasswordHash,
		Firstname:     d.Firstname,
		Lastname:      d.Lastname,
		MonthlyIncome: core.Money{Cents: d.MonthlyIncomeCents},
		CreatedAt:     d.CreatedAt.UTC(),
	}
}
