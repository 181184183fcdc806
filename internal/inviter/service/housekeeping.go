package service

import (
	"context"
	"log/slog"
	"time"
)

// HistoryPruner drops finished job records. store.Jobs satisfies it.
type HistoryPruner interface {
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper removes leftover staged lists. *staging.Stager satisfies it.
type Sweeper interface {
	Sweep(age time.Duration) (int, error)
}

// HousekeepingService periodically prunes job history and staged uploads a
// crashed job left behind.
type HousekeepingService struct {
	Jobs    HistoryPruner
	Staging Sweeper
	Logger  *slog.Logger

	Interval time.Duration

	// Retention is how long finished jobs stay in history.
	Retention time.Duration

	// StagedMaxAge is the age after which an unlocked staged file is stale.
	StagedMaxAge time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service. A non-positive
// interval defaults to 1 hour, a non-positive retention to 30 days.
func NewHousekeepingService(jobs HistoryPruner, staging Sweeper, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	return &HousekeepingService{
		Jobs:         jobs,
		Staging:      staging,
		Logger:       logger,
		Interval:     interval,
		Retention:    retention,
		StagedMaxAge: 24 * time.Hour,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "retention", s.Retention)
}

// Stop shuts down the worker and waits for an in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each step is independent; a failure in one does
// not stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	s.Logger.Debug("starting housekeeping cleanup")

	var jobsDeleted int64
	var filesRemoved int

	if s.Jobs != nil {
		n, err := s.Jobs.DeleteFinishedBefore(ctx, time.Now().Add(-s.Retention))
		if err != nil {
			s.Logger.Error("failed to prune job history", "error", err)
		}
		jobsDeleted = n
	}

	if s.Staging != nil {
		n, err := s.Staging.Sweep(s.StagedMaxAge)
		if err != nil {
			s.Logger.Error("failed to sweep staged lists", "error", err)
		}
		filesRemoved = n
	}

	s.Logger.Info("housekeeping cleanup completed",
		"jobs_deleted", jobsDeleted,
		"staged_files_removed", filesRemoved,
	)
}
