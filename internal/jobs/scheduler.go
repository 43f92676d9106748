// Package jobs runs background cron tasks. Tasks only refresh read caches and
// never take part in a ledger transaction.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DefaultSpec refreshes once a minute.
const DefaultSpec = "@every 1m"

// Refresher reloads an in-memory configuration snapshot.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Warmer recomputes a cached top list.
type Warmer interface {
	Warm(ctx context.Context, n int) error
}

// Scheduler manages background tasks.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	refresher Refresher
	warmer    Warmer
}

// NewScheduler creates a UTC scheduler. warmer may be nil.
func NewScheduler(spec string, refresher Refresher, warmer Warmer) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		spec:      spec,
		refresher: refresher,
		warmer:    warmer,
	}
}

// Start registers the tasks and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, errAdd := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); errAdd != nil {
		return fmt.Errorf("jobs: schedule %q: %w", s.spec, errAdd)
	}
	s.cron.Start()
	log.WithField("spec", s.spec).Info("jobs: scheduler started")
	return nil
}

// RunOnce refreshes the configuration snapshot and warms the leaderboard.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.refresher != nil {
		if errRefresh := s.refresher.Refresh(ctx); errRefresh != nil {
			log.WithError(errRefresh).Error("[CRON] config snapshot refresh failed")
		}
	}
	if s.warmer != nil {
		if errWarm := s.warmer.Warm(ctx, 0); errWarm != nil {
			log.WithError(errWarm).Warn("[CRON] leaderboard warm failed")
		}
	}
}

// Stop stops the scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("jobs: scheduler stopped")
}
