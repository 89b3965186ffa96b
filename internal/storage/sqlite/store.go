// Package sqlite is the embedded single-file backend built on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"

	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var _ storage.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

type scanner interface {
	Scan(dest ...any) error
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// expectOne maps a zero-row write to NotFoundError.
func expectOne(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.NewNotFound(resource, id)
	}
	return nil
}

const transactionColumns = "id, user_id, title, amount_cents, type, category, date, note"

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t      core.Transaction
		typ    string
		dateMs int64
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Amount.Cents, &typ, &t.Category, &dateMs, &t.Note); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.Date = fromMillis(dateMs)
	return t, nil
}

// InsertTransaction implements storage.TransactionWriter
func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Amount.Cents, string(t.Type), t.Category, toMillis(t.Date), t.Note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type,
		"category", t.Category,
		"amount_cents", t.Amount.Cents)

	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET title = ?, amount_cents = ?, type = ?, category = ?, date = ?, note = ?
		 WHERE id = ? AND user_id = ?`,
		t.Title, t.Amount.Cents, string(t.Type), t.Category, toMillis(t.Date), t.Note, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return expectOne(res, "transaction", t.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return expectOne(res, "transaction", id)
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
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

	rows, err := s.db.QueryContext(ctx, query, args...)
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
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *Store) SumTransactions(ctx context.Context, q core.TransactionQuery) (core.Money, error) {
	where, args := whereClause(q)
	var total int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0) FROM transactions "+where, args...).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Money{Cents: total}, nil
}

const budgetColumns = "id, user_id, category, amount_cents, spent_cents, period, start_date, description"

func scanBudget(row scanner) (core.Budget, error) {
	var (
		b       core.Budget
		period  string
		startMs int64
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount.Cents, &b.Spent.Cents, &period, &startMs, &b.Description); err != nil {
		return core.Budget{}, err
	}
	b.Period = core.BudgetPeriod(period)
	b.StartDate = fromMillis(startMs)
	return b, nil
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Category, b.Amount.Cents, b.Spent.Cents, string(b.Period), toMillis(b.StartDate), b.Description)
	if isUniqueViolation(err) {
		return core.Budget{}, &core.ConflictError{Resource: "budget", Key: b.Category}
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	return b, nil
}

func (s *Store) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.NewNotFound("budget", id)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", id, err)
	}
	return b, nil
}

// FindBudgetByCategory implements storage.BudgetSpentWriter
func (s *Store) FindBudgetByCategory(ctx context.Context, userID, category string) (core.Budget, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? AND category = ?`, userID, category)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("find budget for %s: %w", category, err)
	}
	return b, true, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY category`, userID)
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
	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET category = ?, amount_cents = ?, spent_cents = ?, period = ?, start_date = ?, description = ?
		 WHERE id = ? AND user_id = ?`,
		b.Category, b.Amount.Cents, b.Spent.Cents, string(b.Period), toMillis(b.StartDate), b.Description, b.ID, b.UserID)
	if isUniqueViolation(err) {
		return &core.ConflictError{Resource: "budget", Key: b.Category}
	}
	if err != nil {
		return fmt.Errorf("update budget %s: %w", b.ID, err)
	}
	return expectOne(res, "budget", b.ID)
}

// SetBudgetSpent implements storage.BudgetSpentWriter
func (s *Store) SetBudgetSpent(ctx context.Context, userID, category string, spent core.Money) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET spent_cents = ? WHERE user_id = ? AND category = ?`, spent.Cents, userID, category)
	if err != nil {
		return false, fmt.Errorf("set budget spent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	return expectOne(res, "budget", id)
}

func (s *Store) ListBudgetOwners(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM budgets ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list budget owners: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan budget owner: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

const goalColumns = "id, user_id, name, target_amount_cents, current_amount_cents, target_date, monthly_contribution_cents, description"

func scanGoal(row scanner) (core.SavingsGoal, error) {
	var (
		g        core.SavingsGoal
		targetMs int64
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents,
		&targetMs, &g.MonthlyContribution.Cents, &g.Description)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	g.TargetDate = fromMillis(targetMs)
	return g, nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO savings_goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		toMillis(g.TargetDate), g.MonthlyContribution.Cents, g.Description)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert savings goal: %w", err)
	}
	return g, nil
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, core.NewNotFound("savings goal", id)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get savings goal %s: %w", id, err)
	}
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? ORDER BY target_date, id`, userID)
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

// AddGoalFunds increments in a single statement so concurrent deposits do not race.
func (s *Store) AddGoalFunds(ctx context.Context, userID, id string, amount core.Money) (core.SavingsGoal, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE savings_goals SET current_amount_cents = current_amount_cents + ? WHERE id = ? AND user_id = ?`,
		amount.Cents, id, userID)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("add goal funds %s: %w", id, err)
	}
	if err := expectOne(res, "savings goal", id); err != nil {
		return core.SavingsGoal{}, err
	}
	return s.GetGoal(ctx, userID, id)
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete savings goal %s: %w", id, err)
	}
	return expectOne(res, "savings goal", id)
}

const userColumns = "id, email, password_hash, firstname, lastname, monthly_income_cents, created_at"

func scanUser(row scanner) (core.User, error) {
	var (
		u         core.User
		createdMs int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Firstname, &u.Lastname, &u.MonthlyIncome.Cents, &createdMs); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = fromMillis(createdMs)
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = core.NormalizeEmail(u.Email)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.Firstname, u.Lastname, u.MonthlyIncome.Cents, toMillis(u.CreatedAt))
	if isUniqueViolation(err) {
		return core.User{}, &core.ConflictError{Resource: "user", Key: u.Email}
	}
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (core.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NewNotFound("user", id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	email = core.NormalizeEmail(email)
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NewNotFound("user", email)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u core.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET firstname = ?, lastname = ?, monthly_income_cents = ? WHERE id = ?`,
		u.Firstname, u.Lastname, u.MonthlyIncome.Cents, u.ID)
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	return expectOne(res, "user", u.ID)
}
