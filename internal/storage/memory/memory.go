package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Ensure interface conformance
var _ storage.Store = (*Store)(nil)

// Store keeps every record in process memory. It backs tests and the
// "memory" backend used for local development.
type Store struct {
	mu           sync.Mutex
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	goals        map[string]core.SavingsGoal
	users        map[string]core.User
}

func New() *Store {
	return &Store{
		transactions: make(map[string]core.Transaction),
		budgets:      make(map[string]core.Budget),
		goals:        make(map[string]core.SavingsGoal),
		users:        make(map[string]core.User),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// InsertTransaction implements storage.TransactionWriter.
func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[t.ID]
	if !ok || existing.UserID != t.UserID {
		return core.NewNotFound("transaction", t.ID)
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[id]
	if !ok || existing.UserID != userID {
		return core.NewNotFound("transaction", id)
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, core.NewNotFound("transaction", id)
	}
	return t, nil
}

func (s *Store) snapshot() []core.Transaction {
	out := make([]core.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		out = append(out, t)
	}
	return out
}

func (s *Store) FindTransactions(_ context.Context, q core.TransactionQuery) ([]core.Transaction, error) {
	s.mu.Lock()
	all := s.snapshot()
	s.mu.Unlock()
	return q.Apply(all), nil
}

func (s *Store) CountTransactions(_ context.Context, q core.TransactionQuery) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.transactions {
		if q.Matches(t) {
			n++
		}
	}
	return n, nil
}

func (s *Store) SumTransactions(_ context.Context, q core.TransactionQuery) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, t := range s.transactions {
		if q.Matches(t) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

// budgetByCategory must be called with s.mu held.
func (s *Store) budgetByCategory(userID, category string) (core.Budget, bool) {
	for _, b := range s.budgets {
		if b.UserID == userID && b.Category == category {
			return b, true
		}
	}
	return core.Budget{}, false
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.budgetByCategory(b.UserID, b.Category); exists {
		return core.Budget{}, &core.ConflictError{Resource: "budget", Key: b.Category}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, userID, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, core.NewNotFound("budget", id)
	}
	return b, nil
}

func (s *Store) FindBudgetByCategory(_ context.Context, userID, category string) (core.Budget, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgetByCategory(userID, category)
	return b, ok, nil
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.budgets[b.ID]
	if !ok || existing.UserID != b.UserID {
		return core.NewNotFound("budget", b.ID)
	}
	if other, exists := s.budgetByCategory(b.UserID, b.Category); exists && other.ID != b.ID {
		return &core.ConflictError{Resource: "budget", Key: b.Category}
	}
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) SetBudgetSpent(_ context.Context, userID, category string, spent core.Money) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgetByCategory(userID, category)
	if !ok {
		return false, nil
	}
	b.Spent = spent
	s.budgets[b.ID] = b
	return true, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.NewNotFound("budget", id)
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) ListBudgetOwners(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, b := range s.budgets {
		if _, ok := seen[b.UserID]; ok {
			continue
		}
		seen[b.UserID] = struct{}{}
		out = append(out, b.UserID)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.SavingsGoal{}, core.NewNotFound("savings goal", id)
	}
	return g, nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SavingsGoal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TargetDate.Equal(out[j].TargetDate) {
			return out[i].TargetDate.Before(out[j].TargetDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) AddGoalFunds(_ context.Context, userID, id string, amount core.Money) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.SavingsGoal{}, core.NewNotFound("savings goal", id)
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	s.goals[id] = g
	return g, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.NewNotFound("savings goal", id)
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = core.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return core.User{}, &core.ConflictError{Resource: "user", Key: u.Email}
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.NewNotFound("user", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = core.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, core.NewNotFound("user", email)
}

func (s *Store) UpdateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return core.NewNotFound("user", u.ID)
	}
	existing.Firstname = u.Firstname
	existing.Lastname = u.Lastname
	existing.MonthlyIncome = u.MonthlyIncome
	s.users[u.ID] = existing
	return nil
}
