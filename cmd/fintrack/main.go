package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backend := cli.OpenStore(ctx, logger, cfg)

	// Events are optional: without a broker the ledger mirror is not fed.
	var (
		events     services.EventPublisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			_ = backend.Cleanup()
			os.Exit(1)
		}
		amqpClient, events = client, client
		logger.Info("Publishing transaction events", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	app := cli.NewApp(backend.Store, cfg, events)
	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Auth:         app.Auth,
		Tokens:       auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		Users:        app.Users,
		Transactions: app.Transactions,
		Budgets:      app.Budgets,
		Goals:        app.Goals,
		Reports:      app.Reports,
		Dashboard:    app.Dashboard,
		Store:        backend.Store,
	}, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.CacheTTL,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", "error", err)
		_ = backend.Cleanup()
		os.Exit(1)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			exitCode = 1
		}
	}

	shutdownErr := cli.Shutdown(logger, 30*time.Second,
		srv.Shutdown,
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
