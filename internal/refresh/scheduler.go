package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/arvindri2005/Crypto-Tracker/internal/watchlist"
)

// Scheduler periodically refetches market snapshots for the watchlist. This
// is the polling side of the dashboard: no push updates, just refetch on an
// interval.
type Scheduler struct {
	store    *watchlist.Store
	cron     *cron.Cron
	logger   *logrus.Logger
	interval time.Duration
}

func NewScheduler(store *watchlist.Store, interval time.Duration, logger *logrus.Logger) *Scheduler {
	cronScheduler := cron.New(cron.WithSeconds())

	return &Scheduler{
		store:    store,
		cron:     cronScheduler,
		logger:   logger,
		interval: interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.WithField("interval", s.interval).Info("Starting watchlist refresh scheduler")

	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		s.refreshWatchlist(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()

	// Run initial refresh
	go s.refreshWatchlist(ctx)

	s.logger.Info("Watchlist refresh scheduler started successfully")
	return nil
}

func (s *Scheduler) Stop() {
	s.logger.Info("Stopping watchlist refresh scheduler")
	s.cron.Stop()
}

func (s *Scheduler) refreshWatchlist(ctx context.Context) {
	start := time.Now()

	if err := s.store.Refresh(ctx); err != nil {
		s.logger.WithError(err).Error("Watchlist refresh cycle failed")
		return
	}

	duration := time.Since(start)
	s.logger.WithFields(logrus.Fields{
		"duration_ms": duration.Milliseconds(),
		"coins_count": len(s.store.Coins()),
	}).Info("Watchlist refresh cycle completed")
}
