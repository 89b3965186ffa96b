package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

func newTestService() *Service {
	s := NewService(memory.New())
	s.cost = bcrypt.MinCost
	return s
}

func TestRegisterAndVerify(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	u, err := s.Register(ctx, Registration{
		Email:     " Ada@Example.com ",
		Password:  "analytical-engine",
		Firstname: "Ada",
		Lastname:  "Lovelace",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.Email != "ada@example.com" || u.PasswordHash == "analytical-engine" || u.PasswordHash == "" {
		t.Errorf("user = %+v, want normalized email and hashed password", u)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantOK   bool
	}{
		{"correct", "ada@example.com", "analytical-engine", true},
		{"case insensitive email", "ADA@example.com", "analytical-engine", true},
		{"wrong password", "ada@example.com", "difference-engine", false},
		{"unknown email", "bob@example.com", "analytical-engine", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok, err := s.VerifyCredentials(ctx, tt.email, tt.password)
			if err != nil {
				t.Fatalf("VerifyCredentials() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && id != u.ID {
				t.Errorf("id = %q, want %q", id, u.ID)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestService()
	valid := Registration{Email: "a@b.co", Password: "pw", Firstname: "A", Lastname: "B"}

	tests := []struct {
		name  string
		edit  func(*Registration)
		field string
	}{
		{"missing password", func(r *Registration) { r.Password = "" }, "password"},
		{"password over 72 bytes", func(r *Registration) { r.Password = strings.Repeat("x", 80) }, "password"},
		{"multibyte password over 72 bytes", func(r *Registration) { r.Password = strings.Repeat("é", 37) }, "password"},
		{"bad email", func(r *Registration) { r.Email = "not-an-email" }, "email"},
		{"missing firstname", func(r *Registration) { r.Firstname = " " }, "firstname"},
		{"missing lastname", func(r *Registration) { r.Lastname = "" }, "lastname"},
		{"negative income", func(r *Registration) { r.MonthlyIncome = core.Money{Cents: -1} }, "monthlyIncome"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.edit(&r)
			_, err := s.Register(context.Background(), r)
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Errorf("Register() error = %v, want %s validation error", err, tt.field)
			}
		})
	}
}

func TestRegisterLongestPassword(t *testing.T) {
	s := newTestService()
	password := strings.Repeat("p", 72)
	if _, err := s.Register(context.Background(), Registration{Email: "a@b.co", Password: password, Firstname: "A", Lastname: "B"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, ok, err := s.VerifyCredentials(context.Background(), "a@b.co", password); err != nil || !ok {
		t.Fatalf("VerifyCredentials() = %v, %v", ok, err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestService()
	r := Registration{Email: "a@b.co", Password: "pw", Firstname: "A", Lastname: "B"}
	if _, err := s.Register(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	r.Email = "A@B.CO"
	_, err := s.Register(context.Background(), r)
	var conflict *core.ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("Register() error = %v, want conflict", err)
	}
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	signed, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	id, err := tokens.Parse(signed)
	if err != nil || id != "user-1" {
		t.Fatalf("Parse() = %q, %v", id, err)
	}
}

func TestTokensRejectInvalid(t *testing.T) {
	issued := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	tokens := NewTokens("secret", time.Hour)
	tokens.now = func() time.Time { return issued }
	signed, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatal(err)
	}

	expired := NewTokens("secret", time.Hour)
	expired.now = func() time.Time { return issued.Add(2 * time.Hour) }

	otherKey := NewTokens("other", time.Hour)
	otherKey.now = tokens.now

	tests := []struct {
		name   string
		tokens *Tokens
		token  string
	}{
		{"expired", expired, signed},
		{"wrong secret", otherKey, signed},
		{"garbage", tokens, "not.a.token"},
		{"tampered", tokens, signed[:len(signed)-2] + strings.Repeat("x", 2)},
		{"empty", tokens, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.tokens.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
