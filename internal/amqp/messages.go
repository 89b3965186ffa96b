package amqp

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"fintrack/internal/core"
)

// EventKind names the ledger mutation an event describes.
type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	TransactionUpdated EventKind = "transaction.updated"
	TransactionDeleted EventKind = "transaction.deleted"
)

func (k EventKind) IsValid() bool {
	switch k {
	case TransactionCreated, TransactionUpdated, TransactionDeleted:
		return true
	}
	return false
}

// TransactionEvent carries the full record so consumers never read back
// from the ledger. For deletions Transaction is the removed record; for
// updates Previous holds the record before the change.
type TransactionEvent struct {
	Kind        EventKind         `json:"kind"`
	Transaction core.Transaction  `json:"transaction"`
	Previous    *core.Transaction `json:"previous,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

func NewTransactionEvent(kind EventKind, tx core.Transaction, previous *core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Kind:        kind,
		Transaction: tx,
		Previous:    previous,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var evt TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	if !evt.Kind.IsValid() {
		return nil, fmt.Errorf("unknown event kind %q", evt.Kind)
	}
	if evt.Transaction.ID == "" || evt.Transaction.UserID == "" {
		return nil, fmt.Errorf("event without transaction id or owner")
	}
	return &evt, nil
}
