package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerMirror keeps a spreadsheet copy of the ledger. Upsert is keyed by
	// transaction ID so redelivered events overwrite the same row.
	LedgerMirror interface {
		Upsert(ctx context.Context, t core.Transaction) (rowRef string, err error)
		Delete(ctx context.Context, id string) error
	}
)
