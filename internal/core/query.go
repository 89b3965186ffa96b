package core

import (
	"sort"
	"strings"
	"time"
)

// Criterion is one filter dimension of a TransactionQuery. The set of
// implementations is closed: TextSearch, DateRange, TypeIs and CategoryIs.
type Criterion interface {
	matches(t Transaction) bool
	isCriterion()
}

// TextSearch matches titles containing Text, ignoring case.
type TextSearch struct {
	Text string
}

// DateRange matches dates within [From, To]. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

type TypeIs struct {
	Type TransactionType
}

type CategoryIs struct {
	Category string
}

func (TextSearch) isCriterion() {}
func (DateRange) isCriterion()  {}
func (TypeIs) isCriterion()     {}
func (CategoryIs) isCriterion() {}

func (c TextSearch) matches(t Transaction) bool {
	return strings.Contains(strings.ToLower(t.Title), strings.ToLower(c.Text))
}

func (c DateRange) matches(t Transaction) bool {
	if !c.From.IsZero() && t.Date.Before(c.From) {
		return false
	}
	if !c.To.IsZero() && t.Date.After(c.To) {
		return false
	}
	return true
}

func (c TypeIs) matches(t Transaction) bool { return t.Type == c.Type }

func (c CategoryIs) matches(t Transaction) bool { return t.Category == c.Category }

// SortOrder selects the ordering of query results.
type SortOrder string

const (
	NewestFirst     SortOrder = "newestFirst"
	OldestFirst     SortOrder = "oldestFirst"
	AmountHighToLow SortOrder = "amountHighToLow"
	AmountLowToHigh SortOrder = "amountLowToHigh"
)

func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case OldestFirst, AmountHighToLow, AmountLowToHigh:
		return SortOrder(s)
	default:
		return NewestFirst
	}
}

// TransactionQuery is an immutable description of a ledger read. Builder
// methods return a new query and never modify the receiver.
type TransactionQuery struct {
	userID   string
	criteria []Criterion
	order    SortOrder
	skip     int
	limit    int
}

// NewQuery scopes a query to one user's transactions, newest first.
func NewQuery(userID string) TransactionQuery {
	return TransactionQuery{userID: userID, order: NewestFirst}
}

func (q TransactionQuery) with(c Criterion) TransactionQuery {
	next := q
	next.criteria = make([]Criterion, len(q.criteria), len(q.criteria)+1)
	copy(next.criteria, q.criteria)
	next.criteria = append(next.criteria, c)
	return next
}

// Search adds a case-insensitive title filter. Blank text is ignored.
func (q TransactionQuery) Search(text string) TransactionQuery {
	text = strings.TrimSpace(text)
	if text == "" {
		return q
	}
	return q.with(TextSearch{Text: text})
}

// Between adds an inclusive date range.
func (q TransactionQuery) Between(from, to time.Time) TransactionQuery {
	if from.IsZero() && to.IsZero() {
		return q
	}
	return q.with(DateRange{From: from, To: to})
}

// Since adds an open-ended range starting at from.
func (q TransactionQuery) Since(from time.Time) TransactionQuery {
	return q.Between(from, time.Time{})
}

func (q TransactionQuery) OfType(t TransactionType) TransactionQuery {
	return q.with(TypeIs{Type: t})
}

func (q TransactionQuery) InCategory(category string) TransactionQuery {
	return q.with(CategoryIs{Category: category})
}

func (q TransactionQuery) SortBy(order SortOrder) TransactionQuery {
	next := q
	next.order = order
	return next
}

// Page sets skip and limit. A limit of zero means no limit.
func (q TransactionQuery) Page(skip, limit int) TransactionQuery {
	next := q
	next.skip = max(skip, 0)
	next.limit = max(limit, 0)
	return next
}

func (q TransactionQuery) UserID() string  { return q.userID }
func (q TransactionQuery) Order() SortOrder { return q.order }
func (q TransactionQuery) Skip() int        { return q.skip }
func (q TransactionQuery) Limit() int       { return q.limit }

// Criteria returns a copy of the filter list.
func (q TransactionQuery) Criteria() []Criterion {
	out := make([]Criterion, len(q.criteria))
	copy(out, q.criteria)
	return out
}

// Matches reports whether t satisfies the user scope and every criterion.
func (q TransactionQuery) Matches(t Transaction) bool {
	if t.UserID != q.userID {
		return false
	}
	for _, c := range q.criteria {
		if !c.matches(t) {
			return false
		}
	}
	return true
}

// Apply filters, sorts and pages an in-memory slice.
func (q TransactionQuery) Apply(all []Transaction) []Transaction {
	out := make([]Transaction, 0, len(all))
	for _, t := range all {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	SortTransactions(out, q.order)
	if q.skip >= len(out) {
		return []Transaction{}
	}
	out = out[q.skip:]
	if q.limit > 0 && q.limit < len(out) {
		out = out[:q.limit]
	}
	return out
}

// SortTransactions orders txs in place. Ties fall back to ID so paging is stable.
func SortTransactions(txs []Transaction, order SortOrder) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		switch order {
		case OldestFirst:
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
		case AmountHighToLow:
			if a.Amount.Cents != b.Amount.Cents {
				return a.Amount.Cents > b.Amount.Cents
			}
		case AmountLowToHigh:
			if a.Amount.Cents != b.Amount.Cents {
				return a.Amount.Cents < b.Amount.Cents
			}
		default:
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
		}
		return a.ID < b.ID
	})
}
