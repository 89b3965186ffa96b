package main

import (
	"flag"
	"fmt"
	"os"

	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/seed"
)

func main() {
	email := flag.String("email", "", "demo user email (generated when empty)")
	password := flag.String("password", "", "demo user password (generated when empty)")
	months := flag.Int("months", 6, "months of history to generate")
	perMonth := flag.Int("per-month", 25, "random expenses per month")
	goals := flag.Int("goals", 2, "savings goals to create")
	seedValue := flag.Int64("seed", 0, "random seed, 0 for a different dataset each run")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentSeed)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backend := cli.OpenStore(ctx, logger, cfg)
	app := cli.NewApp(backend.Store, cfg, nil)

	res, err := seed.NewSeeder(app.Auth, app.Transactions, app.Budgets, app.Goals).Run(ctx, seed.Options{
		Email:                *email,
		Password:             *password,
		Months:               *months,
		TransactionsPerMonth: *perMonth,
		Goals:                *goals,
		Seed:                 *seedValue,
	})
	_ = backend.Cleanup()
	if err != nil {
		logger.Error("Seeding failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Demo user: %s / %s\n", res.Email, res.Password)
}
