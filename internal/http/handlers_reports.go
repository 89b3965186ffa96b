package http

import (
	"fmt"
	"net/http"
	"time"

	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request, userID string) {
	start, err := parseOptionalDate("periodStart", r.URL.Query().Get("periodStart"), s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if start.IsZero() {
		start = s.svc.Reports.DefaultPeriodStart()
	}

	// Keyed on the exact instant: RFC 3339 starts on the same day differ.
	key := userID + ":" + start.UTC().Format(time.RFC3339Nano)
	if summary, ok := s.reports.Get(key); ok {
		NewJSONResponse().Header("X-Cache", "HIT").Body(summary).Write(w)
		return
	}

	summary, err := s.svc.Reports.GetReportSummary(r.Context(), userID, start)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.reports.Set(key, summary)
	NewJSONResponse().Header("X-Cache", "MISS").Body(summary).Write(w)
}

// handleExportReport streams a rendered report as an attachment.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request, userID string) {
	q := r.URL.Query()
	typ, err := services.ParseReportType(q.Get("type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := parseOptionalDate("periodStart", q.Get("periodStart"), s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	format := q.Get("format")
	if format == "" {
		format = "pdf"
	}

	out, err := s.svc.Reports.Export(r.Context(), userID, services.ExportRequest{
		Type:        typ,
		Format:      format,
		PeriodStart: start,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).WithComponent(applog.ComponentReport).InfoContext(r.Context(),
		"Report exported",
		applog.FieldOperation, applog.OpExport,
		"report_type", typ,
		"format", format,
		"bytes", len(out.Body))

	NewJSONResponse().
		Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename)).
		Raw(out.ContentType, out.Body).
		Write(w)
}
