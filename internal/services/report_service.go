package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

// ReportType selects which sections an exported report contains.
type ReportType string

const (
	FinancialStatus  ReportType = "financial-status"
	ExpenseBreakdown ReportType = "expense-breakdown"
	IncomeAnalysis   ReportType = "income-analysis"
)

// reportMonthsBack is how far before the current month the default window starts.
const reportMonthsBack = 3

func ParseReportType(s string) (ReportType, error) {
	switch ReportType(s) {
	case "", FinancialStatus:
		return FinancialStatus, nil
	case ExpenseBreakdown, IncomeAnalysis:
		return ReportType(s), nil
	default:
		return "", &core.ValidationError{Field: "type", Err: fmt.Errorf("unknown report type %q", s)}
	}
}

type (
	ExportRequest struct {
		Type        ReportType
		Format      string
		PeriodStart time.Time
	}

	ExportedReport struct {
		Filename    string
		ContentType string
		Body        []byte
	}
)

type ReportService struct {
	metrics   *MetricsEngine
	renderers report.Renderers
	now       func() time.Time
}

func NewReportService(metrics *MetricsEngine, renderers report.Renderers) *ReportService {
	return &ReportService{metrics: metrics, renderers: renderers, now: time.Now}
}

// DefaultPeriodStart is the first day of the month three months back.
func (s *ReportService) DefaultPeriodStart() time.Time {
	return core.ReportPeriodStart(s.now(), reportMonthsBack)
}

// GetReportSummary aggregates everything dated on or after periodStart.
// A zero periodStart uses DefaultPeriodStart.
func (s *ReportService) GetReportSummary(ctx context.Context, userID string, periodStart time.Time) (core.ReportSummary, error) {
	if periodStart.IsZero() {
		periodStart = s.DefaultPeriodStart()
	}

	var (
		totals    core.IncomeExpense
		breakdown []core.CategoryAmount
		trends    core.MonthlyTrends
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.metrics.ComputeTotals(gctx, userID, periodStart)
		return err
	})
	g.Go(func() error {
		var err error
		breakdown, err = s.metrics.ComputeExpenseBreakdown(gctx, userID, periodStart)
		return err
	})
	g.Go(func() error {
		var err error
		trends, err = s.metrics.ComputeMonthlyTrends(gctx, userID, periodStart)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.ReportSummary{}, fmt.Errorf("report summary: %w", err)
	}

	return core.ReportSummary{
		PeriodStart:      periodStart,
		TotalIncome:      totals.Income,
		TotalExpenses:    totals.Expenses,
		NetSavings:       totals.Net(),
		SavingsRate:      core.SavingsRate(totals.Income, totals.Expenses),
		ExpenseBreakdown: breakdown,
		MonthlyTrends:    trends,
	}, nil
}

// Export renders the requested report type in the requested format.
func (s *ReportService) Export(ctx context.Context, userID string, req ExportRequest) (ExportedReport, error) {
	renderer, err := s.renderers.Get(req.Format)
	if err != nil {
		return ExportedReport{}, &core.ValidationError{Field: "format", Err: err}
	}
	if req.Type == "" {
		req.Type = FinancialStatus
	}

	summary, err := s.GetReportSummary(ctx, userID, req.PeriodStart)
	if err != nil {
		return ExportedReport{}, err
	}

	title, tables := reportTables(req.Type, summary)
	body, err := renderer.Render(title, tables)
	if err != nil {
		return ExportedReport{}, fmt.Errorf("render %s report: %w", req.Format, err)
	}

	return ExportedReport{
		Filename:    report.Filename(string(req.Type), summary.PeriodStart.Format("2006-01-02"), renderer),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func reportTables(t ReportType, s core.ReportSummary) (string, []report.Table) {
	since := s.PeriodStart.Format("2 Jan 2006")
	switch t {
	case ExpenseBreakdown:
		return "Expense breakdown since " + since, []report.Table{breakdownTable(s)}
	case IncomeAnalysis:
		return "Income analysis since " + since, []report.Table{summaryTable(s), incomeTable(s)}
	default:
		return "Financial status since " + since, []report.Table{summaryTable(s), trendsTable(s), breakdownTable(s)}
	}
}

func summaryTable(s core.ReportSummary) report.Table {
	return report.Table{
		Title:   "Summary",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total income", s.TotalIncome.String()},
			{"Total expenses", s.TotalExpenses.String()},
			{"Net savings", s.NetSavings.String()},
			{"Savings rate", s.SavingsRate},
		},
	}
}

func breakdownTable(s core.ReportSummary) report.Table {
	t := report.Table{Title: "Expenses by category", Headers: []string{"Category", "Amount", "Share"}}
	for _, c := range s.ExpenseBreakdown {
		share := core.Percent(c.Total, s.TotalExpenses).Round(1).StringFixed(1) + "%"
		t.Rows = append(t.Rows, []string{c.Category, c.Total.String(), share})
	}
	return t
}

func trendsTable(s core.ReportSummary) report.Table {
	t := report.Table{Title: "Monthly trends", Headers: []string{"Month", "Income", "Expenses", "Net"}}
	for _, k := range s.MonthlyTrends.Keys() {
		m := s.MonthlyTrends[k]
		t.Rows = append(t.Rows, []string{k, m.Income.String(), m.Expenses.String(), m.Net().String()})
	}
	return t
}

func incomeTable(s core.ReportSummary) report.Table {
	t := report.Table{Title: "Income by month", Headers: []string{"Month", "Income", "Share of period"}}
	for _, k := range s.MonthlyTrends.Keys() {
		income := s.MonthlyTrends[k].Income
		share := core.Percent(income, s.TotalIncome).Round(1).StringFixed(1) + "%"
		t.Rows = append(t.Rows, []string{k, income.String(), share})
	}
	return t
}
