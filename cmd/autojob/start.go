package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/autojob/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the harvest daemon",
	Long:  "Start the cron-driven harvester; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	logger.Info("config loaded",
		"schedule", cfg.Harvest.Schedule,
		"targets", len(cfg.Harvest.Targets),
		"store", cfg.Store.Backend,
		"path", cfg.Store.Path,
		"ai", cfg.AI.Enabled,
	)

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	pollers := buildPollers(cfg, st, logger)
	if len(pollers) == 0 {
		logger.Error("no harvest targets configured")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(pollers, cfg.Harvest.Schedule, cfg.Search.MinDelay, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
