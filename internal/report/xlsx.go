package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSX writes one worksheet per table.
type XLSX struct{}

func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSX) Extension() string { return "xlsx" }

var sheetNameCleaner = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")

// sheetName makes a title legal as a worksheet name (31 chars, no reserved runes).
func sheetName(title string, used map[string]bool) string {
	name := strings.TrimSpace(sheetNameCleaner.Replace(title))
	if name == "" {
		name = "Sheet"
	}
	if r := []rune(name); len(r) > 28 {
		name = string(r[:28])
	}
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s %d", name, i)
	}
	used[candidate] = true
	return candidate
}

func (XLSX) Render(title string, tables []Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if len(tables) == 0 {
		tables = []Table{{Title: title}}
	}

	used := make(map[string]bool)
	for i, t := range tables {
		name := sheetName(t.Title, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", name, err)
		}

		f.SetCellValue(name, "A1", title)
		f.SetCellStyle(name, "A1", "A1", bold)

		for col, header := range t.Headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 3)
			f.SetCellValue(name, cell, header)
			f.SetCellStyle(name, cell, cell, bold)
		}
		for r, row := range t.Rows {
			for col, value := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+4)
				f.SetCellValue(name, cell, value)
			}
		}
		if len(t.Headers) > 0 {
			last, _ := excelize.ColumnNumberToName(len(t.Headers))
			f.SetColWidth(name, "A", last, 20)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
