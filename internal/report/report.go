// Package report renders financial summaries as downloadable documents.
package report

import (
	"fmt"
	"strings"
)

// Table is one titled grid of a report. Every row has len(Headers) cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer turns a titled set of tables into a file.
type Renderer interface {
	Render(title string, tables []Table) ([]byte, error)
	ContentType() string
	Extension() string
}

// Renderers holds the available formats keyed by name ("pdf", "xlsx", "csv").
type Renderers map[string]Renderer

func DefaultRenderers() Renderers {
	return Renderers{
		"pdf":  PDF{},
		"xlsx": XLSX{},
		"csv":  CSV{},
	}
}

func (r Renderers) Get(format string) (Renderer, error) {
	renderer, ok := r[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
	return renderer, nil
}

// Filename builds a download name such as "financial-status_2025-03-01.pdf".
func Filename(base, stamp string, r Renderer) string {
	return fmt.Sprintf("%s_%s.%s", base, stamp, r.Extension())
}
