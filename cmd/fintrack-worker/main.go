package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	memsheet "fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

func main() {
	repairOnce := flag.Bool("repair-once", false, "recompute every budget once and exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backend := cli.OpenStore(ctx, logger, cfg)
	app := cli.NewApp(backend.Store, cfg, nil)

	if *repairOnce {
		_, err := worker.NewRepairScheduler(app.Reconciler, worker.DefaultRepairSchedulerConfig()).RunOnce(ctx)
		_ = backend.Cleanup()
		if err != nil {
			os.Exit(1)
		}
		return
	}

	scheduler := worker.NewRepairScheduler(app.Reconciler, worker.RepairSchedulerConfig{
		Schedule:   cfg.RepairSchedule,
		RunOnStart: true,
	})
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start repair scheduler", "error", err)
		_ = backend.Cleanup()
		os.Exit(1)
	}

	var amqpClient *amqp.Client
	g, gctx := errgroup.WithContext(ctx)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			_ = scheduler.Stop(context.Background())
			_ = backend.Cleanup()
			os.Exit(1)
		}
		amqpClient = client

		mirror := newMirror(ctx, logger, cfg.GoogleSpreadsheetID, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		mirrorWorker := worker.NewMirrorWorker(mirror)
		g.Go(func() error {
			logger.Info("Consuming transaction events", "queue", cfg.AMQPQueue)
			return client.ConsumeTransactionEvents(gctx, mirrorWorker.HandleTransactionEvent)
		})
	} else {
		logger.Info("Ledger mirror disabled - no AMQP_URL provided")
	}

	exitCode := 0
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		exitCode = 1
	}

	shutdownErr := cli.Shutdown(logger, 30*time.Second,
		scheduler.Stop,
		func(context.Context) error {
			if amqpClient == nil {
				return nil
			}
			return amqpClient.Close()
		},
		func(context.Context) error { return backend.Cleanup() },
	)
	if shutdownErr != nil && exitCode == 0 {
		exitCode = 1
	}
	os.Exit(exitCode)
}

// newMirror picks the Google Sheets mirror when a spreadsheet is configured
// and falls back to an in-process mirror otherwise.
func newMirror(ctx context.Context, logger *applog.Logger, spreadsheetID string, cfg gsheet.Config) sheets.LedgerMirror {
	if spreadsheetID == "" {
		logger.Info("Google Sheets disabled - mirroring to memory")
		return memsheet.New()
	}
	client, err := gsheet.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets mirror initialized", "spreadsheet_id", spreadsheetID, "sheet", cfg.SheetName)
	return client
}
