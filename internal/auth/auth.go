package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const maxPasswordBytes = 72

// Registration carries the sign-up form.
type Registration struct {
	Email         string
	Password      string
	Firstname     string
	Lastname      string
	MonthlyIncome core.Money
}

type Service struct {
	users storage.UserStore
	cost  int
	now   func() time.Time
}

func NewService(users storage.UserStore) *Service {
	return &Service{users: users, cost: bcrypt.DefaultCost, now: time.Now}
}

// Register creates a user with a bcrypt password hash. Duplicate emails
// yield a *core.ConflictError.
func (s *Service) Register(ctx context.Context, r Registration) (core.User, error) {
	if r.Password == "" {
		return core.User{}, &core.ValidationError{Field: "password", Err: core.ErrEmptyPassword}
	}
	// bcrypt refuses anything longer.
	if len(r.Password) > maxPasswordBytes {
		return core.User{}, &core.ValidationError{Field: "password", Err: core.ErrPasswordTooLong}
	}
	u := core.User{
		Email:         core.NormalizeEmail(r.Email),
		Firstname:     strings.TrimSpace(r.Firstname),
		Lastname:      strings.TrimSpace(r.Lastname),
		MonthlyIncome: r.MonthlyIncome,
		CreatedAt:     s.now().UTC(),
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return core.User{}, &core.ValidationError{Field: "password", Err: core.ErrPasswordTooLong}
	}
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	saved, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, err
	}
	slog.InfoContext(ctx, "User registered", "user_id", saved.ID)
	return saved, nil
}

// VerifyCredentials checks an email and password pair. Unknown emails and
// wrong passwords both report ok=false with a nil error.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (string, bool, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		var nf *core.NotFoundError
		if errors.As(err, &nf) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("compare password: %w", err)
	}
	return u.ID, true, nil
}
