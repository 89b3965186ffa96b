package cli

import (
	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/report"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// App bundles the services every binary builds on top of one store.
type App struct {
	Store        storage.Store
	Reconciler   *services.Reconciler
	Metrics      *services.MetricsEngine
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Reports      *services.ReportService
	Dashboard    *services.Dashboard
	Users        *services.UserService
	Auth         *auth.Service
}

// NewApp wires the services. events may be nil when no broker is configured.
func NewApp(store storage.Store, cfg *config.Config, events services.EventPublisher) *App {
	reconciler := services.NewReconciler(store, store)
	metrics := services.NewMetricsEngine(store, store)
	return &App{
		Store:        store,
		Reconciler:   reconciler,
		Metrics:      metrics,
		Transactions: services.NewTransactionService(store, reconciler, events, cfg.PageSize),
		Budgets:      services.NewBudgetService(store, reconciler),
		Goals:        services.NewGoalService(store),
		Reports:      services.NewReportService(metrics, report.DefaultRenderers()),
		Dashboard:    services.NewDashboard(metrics, store),
		Users:        services.NewUserService(store),
		Auth:         auth.NewService(store),
	}
}
