package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the body into dst. Unknown
// fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return &badRequest{msg: "request body is empty"}
		case errors.As(err, &maxErr):
			return &badRequest{msg: "request body too large"}
		default:
			return &badRequest{msg: fmt.Sprintf("invalid JSON body: %v", err)}
		}
	}
	if dec.More() {
		return &badRequest{msg: "request body must contain a single JSON object"}
	}
	return nil
}

// parseDate accepts "2006-01-02" or RFC 3339. Plain dates are read in loc.
func parseDate(field, s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &core.ValidationError{Field: field, Err: core.ErrEmptyDate}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, &core.ValidationError{Field: field, Err: fmt.Errorf("invalid date %q", s)}
}

// parseOptionalDate is parseDate that maps a blank value to the zero time.
func parseOptionalDate(field, s string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return parseDate(field, s, loc)
}

// parsePage falls back to the first page for missing or malformed values.
func parsePage(s string) int {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// parseListParams reads the transaction list filters from the query string.
func parseListParams(q url.Values, loc *time.Location) (services.ListParams, error) {
	from, err := parseOptionalDate("startDate", q.Get("startDate"), loc)
	if err != nil {
		return services.ListParams{}, err
	}
	to, err := parseOptionalDate("endDate", q.Get("endDate"), loc)
	if err != nil {
		return services.ListParams{}, err
	}

	return services.ListParams{
		Search:     strings.TrimSpace(q.Get("search")),
		DateRange:  strings.TrimSpace(q.Get("dateRange")),
		CustomFrom: from,
		CustomTo:   to,
		Type:       strings.TrimSpace(q.Get("type")),
		Category:   strings.TrimSpace(q.Get("category")),
		SortBy:     strings.TrimSpace(q.Get("sortBy")),
		Page:       parsePage(q.Get("page")),
	}, nil
}

type (
	transactionRequest struct {
		Title    string     `json:"title"`
		Amount   core.Money `json:"amount"`
		Type     string     `json:"type"`
		Category string     `json:"category"`
		Date     string     `json:"date"`
		Note     string     `json:"note"`
	}

	budgetRequest struct {
		Category    string     `json:"category"`
		Amount      core.Money `json:"amount"`
		Period      string     `json:"period"`
		StartDate   string     `json:"startDate"`
		Description string     `json:"description"`
	}

	goalRequest struct {
		Name                string     `json:"name"`
		TargetAmount        core.Money `json:"targetAmount"`
		CurrentAmount       core.Money `json:"currentAmount"`
		TargetDate          string     `json:"targetDate"`
		MonthlyContribution core.Money `json:"monthlyContribution"`
		Description         string     `json:"description"`
	}

	fundsRequest struct {
		Amount core.Money `json:"amount"`
	}

	registerRequest struct {
		Email         string     `json:"email"`
		Password      string     `json:"password"`
		Firstname     string     `json:"firstname"`
		Lastname      string     `json:"lastname"`
		MonthlyIncome core.Money `json:"monthlyIncome"`
	}

	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	profileRequest struct {
		Firstname     string     `json:"firstname"`
		Lastname      string     `json:"lastname"`
		MonthlyIncome core.Money `json:"monthlyIncome"`
	}
)

func (req transactionRequest) toTransaction(userID string, loc *time.Location) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "type", Err: err}
	}
	date, err := parseDate("date", req.Date, loc)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		UserID:   userID,
		Title:    strings.TrimSpace(req.Title),
		Amount:   req.Amount,
		Type:     typ,
		Category: strings.TrimSpace(req.Category),
		Date:     date,
		Note:     strings.TrimSpace(req.Note),
	}, nil
}

func (req budgetRequest) toBudget(userID string, loc *time.Location) (core.Budget, error) {
	period, err := core.ParseBudgetPeriod(req.Period)
	if err != nil {
		return core.Budget{}, &core.ValidationError{Field: "period", Err: err}
	}
	start, err := parseOptionalDate("startDate", req.StartDate, loc)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		UserID:      userID,
		Category:    req.Category,
		Amount:      req.Amount,
		Period:      period,
		StartDate:   start,
		Description: strings.TrimSpace(req.Description),
	}, nil
}

func (req goalRequest) toGoal(userID string, loc *time.Location) (core.SavingsGoal, error) {
	target, err := parseDate("targetDate", req.TargetDate, loc)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	return core.SavingsGoal{
		UserID:              userID,
		Name:                strings.TrimSpace(req.Name),
		TargetAmount:        req.TargetAmount,
		CurrentAmount:       req.CurrentAmount,
		TargetDate:          target,
		MonthlyContribution: req.MonthlyContribution,
		Description:         strings.TrimSpace(req.Description),
	}, nil
}

func (req profileRequest) toUpdate() services.ProfileUpdate {
	return services.ProfileUpdate{
		Firstname:     req.Firstname,
		Lastname:      req.Lastname,
		MonthlyIncome: req.MonthlyIncome,
	}
}
