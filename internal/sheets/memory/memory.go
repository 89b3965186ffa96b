package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

var _ sheets.LedgerMirror = (*Mirror)(nil)

// Mirror is an in-process LedgerMirror. The worker falls back to it when no
// spreadsheet is configured.
type Mirror struct {
	mu   sync.Mutex
	rows map[string]int
	data []core.Transaction
}

func New() *Mirror {
	return &Mirror{rows: make(map[string]int)}
}

func (m *Mirror) Upsert(_ context.Context, t core.Transaction) (string, error) {
	if t.ID == "" {
		return "", fmt.Errorf("mirror upsert: missing transaction id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.rows[t.ID]; ok {
		m.data[i] = t
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	m.data = append(m.data, t)
	m.rows[t.ID] = len(m.data) - 1
	return fmt.Sprintf("mem:%d", len(m.data)), nil
}

// Delete removes the row. Unknown IDs are ignored.
func (m *Mirror) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.rows[id]
	if !ok {
		return nil
	}
	m.data = append(m.data[:i], m.data[i+1:]...)
	delete(m.rows, id)
	for j := i; j < len(m.data); j++ {
		m.rows[m.data[j].ID] = j
	}
	return nil
}

// Rows returns a copy of the mirrored transactions in insertion order.
func (m *Mirror) Rows() []core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Transaction(nil), m.data...)
}
