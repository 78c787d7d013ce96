package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/autojob/internal/config"
	"github.com/amishk599/autojob/internal/model"
	"github.com/amishk599/autojob/internal/poller"
	"github.com/amishk599/autojob/internal/scheduler"
	"github.com/amishk599/autojob/internal/store"
)

var harvestDryRun bool

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest every configured target once, then exit",
	Long:  "Runs the cache-first harvest for each harvest.targets entry. With --dry-run nothing is saved and every target is searched.",
	RunE:  runHarvest,
}

func init() {
	rootCmd.AddCommand(harvestCmd)
	harvestCmd.Flags().BoolVar(&harvestDryRun, "dry-run", false, "search and fetch but do not save to the cache")
}

func runHarvest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	var st model.RecordStore
	if harvestDryRun {
		logger.Info("dry-run mode enabled, nothing will be saved")
		st = store.NewNopStore()
	} else {
		s, closeStore, err := openStore(cfg, logger)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer closeStore()
		st = s
	}

	pollers := buildPollers(cfg, st, logger)
	if len(pollers) == 0 {
		logger.Error("no harvest targets configured")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(pollers, cfg.Harvest.Schedule, cfg.Search.MinDelay, logger)
	failed := sched.RunOnce(ctx)

	logger.Info("harvest complete", "targets", len(pollers), "failed", failed)
	return nil
}

// buildPollers creates one harvester per configured target, all sharing the
// same rate-limited search tools.
func buildPollers(cfg *config.Config, st model.RecordStore, logger *slog.Logger) []scheduler.Poller {
	httpClient := newHTTPClient(cfg)
	t := buildTools(cfg, httpClient, logger)
	tagger := setupTagger(cfg, logger)
	n := setupNotifier(cfg, httpClient, logger)

	var pollers []scheduler.Poller
	for _, tc := range cfg.Harvest.Targets {
		target := poller.Target{
			Company:  tc.Company,
			Role:     tc.Role,
			Location: tc.Location,
			Salary:   tc.Salary,
			Tags:     tc.Tags,
		}
		p := poller.NewTargetPoller(target, st, t.searcher, t.fetcher, tagger, n, cfg.Harvest.MinContentChars, logger)
		pollers = append(pollers, p)
		logger.Info("registered target", "company", tc.Company, "role", tc.Role)
	}
	return pollers
}
