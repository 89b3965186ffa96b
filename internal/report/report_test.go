package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

var sampleTables = []Table{
	{
		Title:   "Summary",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total income", "3000.00"},
			{"Savings rate", "40.0%"},
		},
	},
	{
		Title:   "Expenses by category",
		Headers: []string{"Category", "Amount"},
		Rows:    [][]string{{"Food", "120.50"}, {"Café", "8.00"}},
	},
}

func TestRenderersGet(t *testing.T) {
	r := DefaultRenderers()
	for _, format := range []string{"pdf", "XLSX", "csv"} {
		if _, err := r.Get(format); err != nil {
			t.Errorf("Get(%q) error = %v", format, err)
		}
	}
	if _, err := r.Get("docx"); err == nil {
		t.Error("Get(docx) should fail")
	}
}

func TestCSVRender(t *testing.T) {
	out, err := CSV{}.Render("Financial status", sampleTables)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	r := csv.NewReader(bytes.NewReader(out))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if records[0][0] != "Financial status" {
		t.Errorf("first record = %v", records[0])
	}
	joined := string(out)
	for _, want := range []string{"Summary", "Metric,Value", "Savings rate,40.0%", "Café,8.00"} {
		if !strings.Contains(joined, want) {
			t.Errorf("csv missing %q:\n%s", want, joined)
		}
	}
}

func TestXLSXRender(t *testing.T) {
	out, err := XLSX{}.Render("Financial status", sampleTables)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Summary" {
		t.Fatalf("sheets = %v", sheets)
	}
	got, _ := f.GetCellValue("Summary", "B5")
	if got != "40.0%" {
		t.Errorf("B5 = %q, want 40.0%%", got)
	}
	header, _ := f.GetCellValue(sheets[1], "A3")
	if header != "Category" {
		t.Errorf("second sheet header = %q", header)
	}
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	if got := sheetName("Income/Expense: 2025", used); got != "Income Expense  2025" {
		t.Errorf("sheetName cleaned = %q", got)
	}
	long := strings.Repeat("x", 40)
	first := sheetName(long, used)
	second := sheetName(long, used)
	if len(first) > 31 || len(second) > 31 || first == second {
		t.Errorf("long names = %q, %q", first, second)
	}
}

func TestPDFRender(t *testing.T) {
	out, err := PDF{}.Render("Financial status", sampleTables)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not look like a pdf: %q", out[:min(len(out), 8)])
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("expense-breakdown", "2025-03-01", CSV{}); got != "expense-breakdown_2025-03-01.csv" {
		t.Errorf("Filename = %q", got)
	}
}
