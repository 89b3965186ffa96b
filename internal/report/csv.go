package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSV writes each table as a block preceded by its title, separated by blank lines.
type CSV struct{}

func (CSV) ContentType() string { return "text/csv; charset=utf-8" }
func (CSV) Extension() string   { return "csv" }

func (CSV) Render(title string, tables []Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{{title}}
	for _, t := range tables {
		records = append(records, []string{}, []string{t.Title}, t.Headers)
		records = append(records, t.Rows...)
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
