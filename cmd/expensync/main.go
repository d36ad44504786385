package main

import (
	"context"
	"os"

	"expensync/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger := cli.SetupLogger("info")
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, cancel := cli.InterruptContext(context.Background(), logger)
	defer cancel()

	app := cli.New(cli.Options{Config: cfg, Logger: logger})
	if err := app.Execute(ctx); err != nil {
		cancel()
		cli.Fatal(err)
	}
}
