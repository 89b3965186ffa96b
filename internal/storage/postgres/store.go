// Package postgres is the server-grade SQL backend built on pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Ensure interface conformance
var _ storage.Store = (*Store)(nil)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

// New migrates the schema and opens a connection pool.
func New(ctx context.Context, dsn string) (*Store, error) {
	if err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	slog.InfoContext(ctx, "Connected to PostgreSQL")
	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func expectOne(tag pgconn.CommandTag, resource, id string) error {
	if tag.RowsAffected() == 0 {
		return core.NewNotFound(resource, id)
	}
	return nil
}

const transactionColumns = "id, user_id, title, amount_cents, type, category, date, note"

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t   core.Transaction
		typ string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Amount.Cents, &typ, &t.Category, &t.Date, &t.Note); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.Date = t.Date.UTC()
	return t, nil
}

// InsertTransaction implements storage.TransactionWriter
func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.UserID, t.Title, t.Amount.Cents, string(t.Type), t.Category, t.Date, t.Note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE transactions SET title = $1, amount_cents = $2, type = $3, category = $4, date = $5, note = $6
		 WHERE id = $7 AND user_id = $8`,
		t.Title, t.Amount.Cents, string(t.Type), t.Category, t.Date, t.Note, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return expectOne(tag, "transaction", t.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return expectOne(tag, "transaction", id)
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := scanTransaction(s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, core.NewNotFound("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

// FindTransactions implements storage.TransactionReader
func (s *Store) FindTransactions(ctx context.Context, q core.TransactionQuery) ([]core.Transaction, error) {
	where, args := whereClause(q)
	query := strings.Join([]string{
		"SELECT " + transactionColumns + " FROM transactions",
		where,
		orderClause(q.Order()),
		pageClause(q.Skip(), q.Limit()),
	}, " ")

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CountTransactions(ctx context.Context, q core.TransactionQuery) (int, error) {
	where, args := whereClause(q)
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *Store) SumTransactions(ctx context.Context, q core.TransactionQuery) (core.Money, error) {
	where, args := whereClause(q)
	var total int64
	err := s.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0)::BIGINT FROM transactions "+where, args...).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Money{Cents: total}, nil
}

const budgetColumns = "id, user_id, category, amount_cents, spent_cents, period, start_date, description"

func scanBudget(row pgx.Row) (core.Budget, error) {
	var (
		b      core.Budget
		period string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount.Cents, &b.Spent.Cents, &period, &b.StartDate, &b.Description); err != nil {
		return core.Budget{}, err
	}
	b.Period = core.BudgetPeriod(period)
	b.StartDate = b.StartDate.UTC()
	return b, nil
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.UserID, b.Category, b.Amount.Cents, b.Spent.Cents, string(b.Period), b.StartDate, b.Description)
	if isUniqueViolation(err) {
		return core.Budget{}, &core.ConflictError{Resource: "budget", Key: b.Category}
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	return b, nil
}

func (s *Store) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	b, err := scanBudget(s.pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Budget{}, core.NewNotFound("budget", id)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", id, err)
	}
	return b, nil
}

// FindBudgetByCategory implements storage.BudgetSpentWriter
func (s *Store) FindBudgetByCategory(ctx context.Context, userID, category string) (core.Budget, bool, error) {
	b, err := scanBudget(s.pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 AND category = $2`, userID, category))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("find budget for %s: %w", category, err)
	}
	return b, true, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBudget(ctx context.Context, b core.Budget) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE budgets SET category = $1, amount_cents = $2, spent_cents = $3, period = $4, start_date = $5, description = $6
		 WHERE id = $7 AND user_id = $8`,
		b.Category, b.Amount.Cents, b.Spent.Cents, string(b.Period), b.StartDate, b.Description, b.ID, b.UserID)
	if isUniqueViolation(err) {
		return &core.ConflictError{Resource: "budget", Key: b.Category}
	}
	if err != nil {
		return fmt.Errorf("update budget %s: %w", b.ID, err)
	}
	return expectOne(tag, "budget", b.ID)
}

// SetBudgetSpent implements storage.BudgetSpentWriter
func (s *Store) SetBudgetSpent(ctx context.Context, userID, category string, spent core.Money) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE budgets SET spent_cents = $1 WHERE user_id = $2 AND category = $3`, spent.Cents, userID, category)
	if err != nil {
		return false, fmt.Errorf("set budget spent: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	return expectOne(tag, "budget", id)
}

func (s *Store) ListBudgetOwners(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT user_id FROM budgets ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list budget owners: %w", err)
	}
	owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan budget owners: %w", err)
	}
	return owners, nil
}

const goalColumns = "id, user_id, name, target_amount_cents, current_amount_cents, target_date, monthly_contribution_cents, description"

func scanGoal(row pgx.Row) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents,
		&g.TargetDate, &g.MonthlyContribution.Cents, &g.Description)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	g.TargetDate = g.TargetDate.UTC()
	return g, nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO savings_goals (`+goalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		g.TargetDate, g.MonthlyContribution.Cents, g.Description)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert savings goal: %w", err)
	}
	return g, nil
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	g, err := scanGoal(s.pool.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.SavingsGoal{}, core.NewNotFound("savings goal", id)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get savings goal %s: %w", id, err)
	}
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = $1 ORDER BY target_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.SavingsGoal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// AddGoalFunds increments in a single statement and returns the new row.
func (s *Store) AddGoalFunds(ctx context.Context, userID, id string, amount core.Money) (core.SavingsGoal, error) {
	g, err := scanGoal(s.pool.QueryRow(ctx,
		`UPDATE savings_goals SET current_amount_cents = current_amount_cents + $1
		 WHERE id = $2 AND user_id = $3 RETURNING `+goalColumns,
		amount.Cents, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.SavingsGoal{}, core.NewNotFound("savings goal", id)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("add goal funds %s: %w", id, err)
	}
	return g, nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM savings_goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete savings goal %s: %w", id, err)
	}
	return expectOne(tag, "savings goal", id)
}

const userColumns = "id, email, password_hash, firstname, lastname, monthly_income_cents, created_at"

func scanUser(row pgx.Row) (core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Firstname, &u.Lastname, &u.MonthlyIncome.Cents, &u.CreatedAt); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = core.NormalizeEmail(u.Email)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.PasswordHash, u.Firstname, u.Lastname, u.MonthlyIncome.Cents, u.CreatedAt)
	if isUniqueViolation(err) {
		return core.User{}, &core.ConflictError{Resource: "user", Key: u.Email}
	}
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (core.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.NewNotFound("user", id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	email = core.NormalizeEmail(email)
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.NewNotFound("user", email)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u core.User) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET firstname = $1, lastname = $2, monthly_income_cents = $3 WHERE id = $4`,
		u.Firstname, u.Lastname, u.MonthlyIncome.Cents, u.ID)
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	return expectOne(tag, "user", u.ID)
}
