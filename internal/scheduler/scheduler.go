package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"awin_tap/internal/domain"
)

// Syncer defines the interface for sync operations.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
}

// Scheduler runs the syncer on a cron schedule, one run at a time.
type Scheduler struct {
	syncer     Syncer
	schedule   string
	runTimeout time.Duration
	logger     *slog.Logger
	cron       *gocron.Scheduler
}

func NewScheduler(syncer Syncer, schedule string, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()

	return &Scheduler{
		syncer:     syncer,
		schedule:   schedule,
		runTimeout: runTimeout,
		logger:     logger,
		cron:       cron,
	}
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.Cron(s.schedule).Do(func() {
		_ = s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule sync %q: %w", s.schedule, err)
	}

	s.cron.StartAsync()
	s.logger.Info("scheduler started", "schedule", s.schedule)

	<-ctx.Done()
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// RunOnce runs a single sync bounded by the run timeout.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	syncCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if _, err := s.syncer.Sync(syncCtx); err != nil {
		s.logger.Error("sync failed", "error", err)
		return err
	}
	return nil
}
