package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// PDF lays tables out on A4 portrait pages with the core Helvetica font.
type PDF struct{}

func (PDF) ContentType() string { return "application/pdf" }
func (PDF) Extension() string   { return "pdf" }

const (
	pdfMargin     = 15.0
	pdfPageWidth  = 210.0
	pdfRowHeight  = 7.0
	pdfTitleSize  = 16.0
	pdfHeaderSize = 11.0
	pdfBodySize   = 10.0
)

func (PDF) Render(title string, tables []Table) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", pdfTitleSize)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	width := pdfPageWidth - 2*pdfMargin
	for _, t := range tables {
		pdf.SetFont("Helvetica", "B", pdfHeaderSize)
		pdf.CellFormat(0, 8, tr(t.Title), "", 1, "L", false, 0, "")

		if len(t.Headers) > 0 {
			colWidth := width / float64(len(t.Headers))

			pdf.SetFillColor(230, 230, 230)
			for _, h := range t.Headers {
				pdf.CellFormat(colWidth, pdfRowHeight, tr(h), "1", 0, "L", true, 0, "")
			}
			pdf.Ln(-1)

			pdf.SetFont("Helvetica", "", pdfBodySize)
			for _, row := range t.Rows {
				for _, v := range row {
					pdf.CellFormat(colWidth, pdfRowHeight, tr(v), "1", 0, "L", false, 0, "")
				}
				pdf.Ln(-1)
			}
		}
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
