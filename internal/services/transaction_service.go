package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// DefaultPageSize is the transaction list page length.
const DefaultPageSize = 15

// AllCategories is the category filter value that disables category filtering.
const AllCategories = "All Categories"

// EventPublisher announces committed ledger mutations.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error
}

// TransactionService orchestrates ledger writes, budget reconciliation and
// event publishing.
type TransactionService struct {
	ledger     storage.LedgerStore
	reconciler *Reconciler
	events     EventPublisher
	ranges     *DateRangeResolver
	pageSize   int
	now        func() time.Time
}

// NewTransactionService wires the service. events may be nil when no broker
// is configured.
func NewTransactionService(ledger storage.LedgerStore, reconciler *Reconciler, events EventPublisher, pageSize int) *TransactionService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &TransactionService{
		ledger:     ledger,
		reconciler: reconciler,
		events:     events,
		ranges:     NewDateRangeResolver(),
		pageSize:   pageSize,
		now:        time.Now,
	}
}

type (
	// ListParams are the raw list filters as received from a client.
	ListParams struct {
		Search     string
		DateRange  string
		CustomFrom time.Time
		CustomTo   time.Time
		Type       string
		Category   string
		SortBy     string
		Page       int
	}

	TransactionPage struct {
		Transactions []core.Transaction `json:"transactions"`
		Page         int                `json:"page"`
		PageSize     int                `json:"pageSize"`
		Total        int                `json:"total"`
		TotalPages   int                `json:"totalPages"`
		HasNext      bool               `json:"hasNext"`
		HasPrev      bool               `json:"hasPrev"`
	}
)

func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = ""
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.ledger.InsertTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.reconciler.OnTransactionCreated(ctx, saved)
	s.publish(ctx, amqp.TransactionCreated, saved, nil)

	slog.InfoContext(ctx, "Transaction created",
		"id", saved.ID,
		"user_id", saved.UserID,
		"type", saved.Type,
		"category", saved.Category,
		"amount_cents", saved.Amount.Cents)

	return saved, nil
}

// Update replaces a transaction owned by tx.UserID.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	old, err := s.ledger.GetTransaction(ctx, tx.UserID, tx.ID)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.ledger.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.reconciler.OnTransactionUpdated(ctx, old, tx)
	s.publish(ctx, amqp.TransactionUpdated, tx, &old)

	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	old, err := s.ledger.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.ledger.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.reconciler.OnTransactionDeleted(ctx, old)
	s.publish(ctx, amqp.TransactionDeleted, old, nil)

	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.ledger.GetTransaction(ctx, userID, id)
}

// List returns one page of the user's transactions matching p.
func (s *TransactionService) List(ctx context.Context, userID string, p ListParams) (TransactionPage, error) {
	q, err := s.buildQuery(userID, p)
	if err != nil {
		return TransactionPage{}, err
	}

	total, err := s.ledger.CountTransactions(ctx, q)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("count transactions: %w", err)
	}

	page := max(p.Page, 1)
	txs, err := s.ledger.FindTransactions(ctx, q.Page((page-1)*s.pageSize, s.pageSize))
	if err != nil {
		return TransactionPage{}, fmt.Errorf("find transactions: %w", err)
	}

	totalPages := max((total+s.pageSize-1)/s.pageSize, 1)
	return TransactionPage{
		Transactions: txs,
		Page:         page,
		PageSize:     s.pageSize,
		Total:        total,
		TotalPages:   totalPages,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}, nil
}

func (s *TransactionService) buildQuery(userID string, p ListParams) (core.TransactionQuery, error) {
	q := core.NewQuery(userID).Search(p.Search)

	from, to, err := s.ranges.Resolve(p.DateRange, s.now(), p.CustomFrom, p.CustomTo)
	if err != nil {
		return q, err
	}
	q = q.Between(from, to)

	if typ := strings.TrimSpace(p.Type); typ != "" && !strings.EqualFold(typ, "all") {
		t, err := core.ParseTransactionType(typ)
		if err != nil {
			return q, &core.ValidationError{Field: "type", Err: err}
		}
		q = q.OfType(t)
	}

	if cat := strings.TrimSpace(p.Category); cat != "" && cat != AllCategories {
		q = q.InCategory(cat)
	}

	return q.SortBy(core.ParseSortOrder(p.SortBy)), nil
}

// publish is best effort: the ledger write already succeeded.
func (s *TransactionService) publish(ctx context.Context, kind amqp.EventKind, tx core.Transaction, previous *core.Transaction) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(kind, tx, previous)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"kind", kind,
			"id", tx.ID,
			"error", err)
		// Don't fail the request - the transaction is stored
	}
}
