package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"awin_tap/internal/cursor"
	"awin_tap/internal/domain"
)

// SyncService runs one window end to end: load state, plan, extract, then
// checkpoint the advanced state. Nothing is checkpointed unless extraction
// returned without error.
type SyncService struct {
	planner   *cursor.Manager
	extractor *Extractor
	sink      RecordSink
	states    StateStore
	txManager TransactionManager
	logger    *slog.Logger
}

func NewSyncService(
	planner *cursor.Manager,
	extractor *Extractor,
	sink RecordSink,
	states StateStore,
	txManager TransactionManager,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		planner:   planner,
		extractor: extractor,
		sink:      sink,
		states:    states,
		txManager: txManager,
		logger:    logger,
	}
}

func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID)

	state, err := s.states.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	plan, err := s.planner.Plan(state)
	if err != nil {
		return nil, fmt.Errorf("plan run: %w", err)
	}

	stats := &domain.SyncStats{
		RunID:       runID,
		WindowStart: plan.Timestamps.StartString(),
		WindowEnd:   plan.Timestamps.EndString(),
		Emitted:     make(map[string]int),
	}

	logger.Info("starting sync",
		"first_run", plan.FirstRun,
		"window_start", stats.WindowStart,
		"window_end", stats.WindowEnd,
	)

	report, err := s.extractor.Extract(ctx, plan)
	if report != nil {
		collectStats(stats, report)
	}
	if err != nil {
		logger.Error("extraction aborted, state not advanced", "error", err)
		return stats, fmt.Errorf("extract: %w", err)
	}

	next := s.planner.Advance(plan)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.sink.WriteState(txCtx, next); err != nil {
			return fmt.Errorf("write state: %w", err)
		}
		if err := s.states.Save(txCtx, next); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("checkpoint state: %w", err)
	}

	stats.Duration = time.Since(startTime)

	logger.Info("sync completed",
		"last_fetched", next.LastFetched,
		"emitted", stats.Emitted,
		"skipped", stats.Skipped,
		"warnings", stats.Warnings,
		"duration", stats.Duration,
	)

	return stats, nil
}

func collectStats(stats *domain.SyncStats, report *domain.RunReport) {
	for _, res := range report.Results {
		if res.Skipped() {
			stats.Skipped++
			continue
		}
		stats.Emitted[res.Stream] += res.Records
		stats.Warnings += res.Warnings
	}
}

// NoTransaction runs checkpoints directly, for sinks and state stores that
// share no database.
type NoTransaction struct{}

func (NoTransaction) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
