package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Poller is one unit of scheduled work.
type Poller interface {
	Name() string
	Poll(ctx context.Context) error
}

// Scheduler runs every poller on a cron schedule. Cycles never overlap: a
// tick that fires while the previous cycle is still running is skipped.
type Scheduler struct {
	pollers []Poller
	spec    string // cron spec, e.g. "@every 6h"
	pause   time.Duration
	logger  *slog.Logger
}

// NewScheduler creates a scheduler that runs all pollers on spec, pausing
// between pollers within a cycle.
func NewScheduler(pollers []Poller, spec string, pause time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pollers: pollers,
		spec:    spec,
		pause:   pause,
		logger:  logger,
	}
}

// Run registers the cycle, runs one immediate cycle, then blocks until ctx
// is cancelled. It returns nil on graceful shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})))
	if _, err := c.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("register cron spec %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler",
		"schedule", s.spec,
		"targets", len(s.pollers),
	)

	// Run one immediate cycle so the cache fills without waiting for the first tick.
	s.RunOnce(ctx)

	c.Start()
	<-ctx.Done()

	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

// RunOnce runs Poll on each poller sequentially and returns how many failed.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	failed := 0
	for i, p := range s.pollers {
		if ctx.Err() != nil {
			return failed
		}

		if err := p.Poll(ctx); err != nil {
			s.logger.Error("harvest failed",
				"target", p.Name(),
				"error", err,
			)
			failed++
		}

		// Small sleep between targets to be polite, except after the last one.
		if i < len(s.pollers)-1 && s.pause > 0 {
			select {
			case <-ctx.Done():
				return failed
			case <-time.After(s.pause):
			}
		}
	}
	s.logger.Info("harvest cycle complete", "targets", len(s.pollers), "failed", failed)
	return failed
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
