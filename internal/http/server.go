package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the application services the API exposes.
type Services struct {
	Auth         *auth.Service
	Tokens       *auth.Tokens
	Users        *services.UserService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Reports      *services.ReportService
	Dashboard    *services.Dashboard
	Store        Pinger
}

type Options struct {
	Logger             *applog.Logger
	RateLimitPerMinute int
	CacheTTL           time.Duration
	TrustedProxies     []string
	// Location is used for plain "YYYY-MM-DD" dates. Defaults to time.Local.
	Location *time.Location
}

type Server struct {
	http.Server
	svc      Services
	logger   *applog.Logger
	loc      *time.Location
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	// Per-user read caches, dropped on every write that affects them.
	dashboards *cache.LRUCache[core.DashboardMetrics]
	reports    *cache.LRUCache[core.ReportSummary]
	caches     *cache.Manager

	shutdownOnce sync.Once
}

const (
	cacheEntries    = 500
	cleanupInterval = 10 * time.Minute
)

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		svc:        svc,
		logger:     logger,
		loc:        loc,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:   detector,
		started:    time.Now(),
		dashboards: cache.NewLRUCache[core.DashboardMetrics](cacheEntries, ttl),
		reports:    cache.NewLRUCache[core.ReportSummary](cacheEntries, ttl),
		caches:     cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger),
	}
	s.caches.Register("dashboard", s.dashboards)
	s.caches.Register("report", s.reports)
	s.caches.StartCleanup(cleanupInterval)

	s.tracer = trace.NewMiddleware(logger, detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimited)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(detector.Middleware(true)(limit(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	authed := func(pattern string, h authedHandler) {
		mux.Handle(pattern, s.requireAuth(h))
	}

	authed("GET /api/dashboard", s.handleDashboard)

	authed("GET /api/transactions", s.handleListTransactions)
	authed("POST /api/transactions", s.handleCreateTransaction)
	authed("GET /api/transactions/{id}", s.handleGetTransaction)
	authed("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	authed("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	authed("GET /api/budgets", s.handleListBudgets)
	authed("POST /api/budgets", s.handleCreateBudget)
	authed("POST /api/budgets/recompute", s.handleRecomputeBudgets)
	authed("GET /api/budgets/{id}", s.handleGetBudget)
	authed("PUT /api/budgets/{id}", s.handleUpdateBudget)
	authed("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	authed("GET /api/goals", s.handleGoalSummary)
	authed("POST /api/goals", s.handleCreateGoal)
	authed("GET /api/goals/{id}", s.handleGetGoal)
	authed("DELETE /api/goals/{id}", s.handleDeleteGoal)
	authed("POST /api/goals/{id}/funds", s.handleAddGoalFunds)

	authed("GET /api/reports/summary", s.handleReportSummary)
	authed("GET /api/reports/export", s.handleExportReport)

	authed("GET /api/profile", s.handleGetProfile)
	authed("PUT /api/profile", s.handleUpdateProfile)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later").Write(w)
}

// invalidateUser drops the cached dashboard and reports of one user.
func (s *Server) invalidateUser(userID string) {
	s.dashboards.Delete(userID)
	s.reports.DeletePrefix(userID + ":")
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		if err := s.Server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr = err
		}
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.svc.Store != nil {
		if err := s.svc.Store.Ping(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, "unavailable", "storage not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

// handleMetrics writes request, security and cache counters in the
// Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	tm := s.tracer.GetMetrics()
	sm := s.detector.GetMetrics()
	rm := s.limiter.GetMetrics()

	metrics := []struct {
		name, kind, help string
		value            int64
	}{
		{"http_requests_total", "counter", "HTTP requests served", tm.TotalRequests},
		{"http_response_time_avg_microseconds", "gauge", "Average response time", tm.AverageResponseTime},
		{"security_suspicious_requests_total", "counter", "Requests matching a suspicious pattern", sm.SuspiciousRequests},
		{"security_blocked_requests_total", "counter", "Suspicious requests rejected", sm.BlockedRequests},
		{"rate_limit_hits_total", "counter", "Requests refused by the rate limiter", rm.TotalHits},
		{"rate_limit_clients", "gauge", "Clients tracked by the rate limiter", rm.ClientCount},
		{"cache_dashboard_entries", "gauge", "Cached dashboards", int64(s.dashboards.Size())},
		{"cache_report_entries", "gauge", "Cached report summaries", int64(s.reports.Size())},
		{"uptime_seconds", "gauge", "Seconds since the server was built", int64(time.Since(s.started).Seconds())},
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP fintrack_%s %s\n# TYPE fintrack_%s %s\nfintrack_%s %d\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}
