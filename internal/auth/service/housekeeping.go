package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/notesauth/internal/auth/store"
)

// DefaultRetention keeps expired refresh records around for thirty days so
// that reuse of a long-dead token can still be traced.
const DefaultRetention = 30 * 24 * time.Hour

// HousekeepingService periodically deletes refresh records that expired
// more than Retention ago.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration
	Clock     func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. Non-positive
// interval and retention fall back to one hour and DefaultRetention.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &HousekeepingService{
		Store:     store,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		Clock:     time.Now,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. It is non-blocking and should be
// called after migrations have run. Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "retention", s.Retention)
}

// Stop blocks until any in-progress cleanup has finished.
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

// Cleanup runs one pass and returns how many records were deleted.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cutoff := s.Clock().UTC().Add(-s.Retention)
	n, err := s.Store.RefreshRecords().DeleteRefreshRecordsExpiredBefore(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to delete expired refresh records", "error", err)
		return 0
	}

	s.Logger.Info("housekeeping cleanup completed", "deleted", n, "cutoff", cutoff)
	return n
}
