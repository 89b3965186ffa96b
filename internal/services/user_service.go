package services

import (
	"context"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ProfileUpdate holds the editable profile fields.
type ProfileUpdate struct {
	Firstname     string
	Lastname      string
	MonthlyIncome core.Money
}

type UserService struct {
	users storage.UserStore
}

func NewUserService(users storage.UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Profile(ctx context.Context, userID string) (core.User, error) {
	return s.users.GetUser(ctx, userID)
}

// UpdateProfile changes names and declared monthly income. The balance
// picks up the new income for every elapsed month.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) (core.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, err
	}
	u.Firstname = strings.TrimSpace(p.Firstname)
	u.Lastname = strings.TrimSpace(p.Lastname)
	u.MonthlyIncome = p.MonthlyIncome
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return core.User{}, err
	}
	return u, nil
}
