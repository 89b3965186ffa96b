package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"fintrack/internal/services"
)

// Repairer rebuilds every cached budget spent value from the ledger.
type Repairer interface {
	RecomputeAll(ctx context.Context) (services.RepairReport, error)
}

// RepairSchedulerConfig holds configuration for the repair scheduler
type RepairSchedulerConfig struct {
	// Schedule is a standard five-field cron spec or a descriptor such as "@daily".
	Schedule string

	// RunOnStart triggers one repair as soon as the scheduler starts.
	RunOnStart bool
}

// DefaultRepairSchedulerConfig runs the repair shortly after midnight,
// when a new month's budgets reset.
func DefaultRepairSchedulerConfig() RepairSchedulerConfig {
	return RepairSchedulerConfig{
		Schedule:   "5 0 * * *",
		RunOnStart: true,
	}
}

// RepairScheduler runs drift repair on a cron schedule.
type RepairScheduler struct {
	repairer Repairer
	config   RepairSchedulerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	runs    sync.WaitGroup
}

func NewRepairScheduler(repairer Repairer, config RepairSchedulerConfig) *RepairScheduler {
	return &RepairScheduler{repairer: repairer, config: config}
}

// Start registers the schedule and begins running. Returns an error if
// already running or if the schedule does not parse.
func (s *RepairScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("repair scheduler is already running")
	}

	c := cron.New()
	if _, err := c.AddFunc(s.config.Schedule, func() { _, _ = s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid repair schedule %q: %w", s.config.Schedule, err)
	}
	c.Start()
	s.cron = c
	s.running = true

	if s.config.RunOnStart {
		s.runs.Add(1)
		go func() {
			defer s.runs.Done()
			_, _ = s.RunOnce(ctx)
		}()
	}

	slog.InfoContext(ctx, "Repair scheduler started",
		"schedule", s.config.Schedule,
		"run_on_start", s.config.RunOnStart)
	return nil
}

// Stop halts the schedule and waits for a running repair to finish.
func (s *RepairScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	c := s.cron
	s.running = false
	s.cron = nil
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-c.Stop().Done()
		s.runs.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.InfoContext(ctx, "Repair scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Repair scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *RepairScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce performs one repair pass and logs its outcome. Failures of single
// budgets do not stop the pass. The error is non-nil when any user failed or
// the pass could not start, for example when owners cannot be listed.
func (s *RepairScheduler) RunOnce(ctx context.Context) (services.RepairReport, error) {
	if err := ctx.Err(); err != nil {
		return services.RepairReport{}, err
	}

	report, err := s.repairer.RecomputeAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Budget repair finished with errors",
			"users", report.Users,
			"budgets", report.Budgets,
			"failed", report.Failed,
			"error", err)
		return report, err
	}

	slog.InfoContext(ctx, "Budget repair completed",
		"users", report.Users,
		"budgets", report.Budgets)
	return report, nil
}
