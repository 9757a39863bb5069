// cmd/seed_fire_units/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/edmundobop/plataforma-bravo/internal/adapters/in/cli"
	appcfg "github.com/edmundobop/plataforma-bravo/internal/infra/config"
	"github.com/edmundobop/plataforma-bravo/internal/infra/logger"
	"github.com/edmundobop/plataforma-bravo/internal/platform/di"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := appcfg.Load()

	base, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		return 1
	}
	defer func() { _ = base.Sync() }()

	runID := logger.NewRunID()
	log := logger.WithRun(base, runID)

	root := cli.NewRootCmd(di.NewFactory(cfg, log, runID))
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error("❌ fire unit setup failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Oops. An error occurred while executing %s: %v\n", cli.CliName, err)
		return 1
	}
	return 0
}
