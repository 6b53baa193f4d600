// Package scheduler loads the catalogs at startup and refreshes them on a
// gocron schedule. A refresh builds a complete new catalog set and swaps it
// into the store. The previous set is closed after a grace period so queries
// already holding it can finish.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/logging"
	"github.com/giygas/drugcost-api/metrics"
)

const (
	defaultRetireAfter = 30 * time.Second
	defaultLoadTimeout = 30 * time.Minute
	staleAfter         = 25 * time.Hour
)

// Refresh results recorded in metrics
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler keeps the catalog store populated
type Scheduler struct {
	store     interfaces.CatalogStore
	loader    interfaces.Loader
	refresher interfaces.Loader
	schedule  string
	scheduler *gocron.Scheduler
	job       *gocron.Job

	retireAfter time.Duration
	loadTimeout time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a scheduler. loader produces the startup set and
// refresher the scheduled ones; a nil refresher reuses loader. An empty
// schedule disables refreshes.
func NewScheduler(store interfaces.CatalogStore, loader, refresher interfaces.Loader, schedule string) *Scheduler {
	if refresher == nil {
		refresher = loader
	}
	return &Scheduler{
		store:       store,
		loader:      loader,
		refresher:   refresher,
		schedule:    schedule,
		scheduler:   gocron.NewScheduler(time.Local),
		retireAfter: defaultRetireAfter,
		loadTimeout: defaultLoadTimeout,
		stop:        make(chan struct{}),
	}
}

// Start performs the initial load when the store is empty, then schedules refreshes
func (s *Scheduler) Start() error {
	if s.store.Current() == nil {
		if err := s.update(s.loader); err != nil {
			logging.Error("Failed to perform initial catalog load", "error", err)
			return fmt.Errorf("initial catalog load failed: %w", err)
		}
	}

	if s.schedule == "" {
		logging.Info("Catalog refresh disabled")
		return nil
	}

	job, err := s.scheduler.Every(1).Days().At(s.schedule).Do(func() {
		if err := s.Refresh(); err != nil {
			logging.Error("Failed to refresh catalogs", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule catalog refresh", "schedule", s.schedule, "error", err)
		return fmt.Errorf("failed to schedule catalog refresh: %w", err)
	}
	s.job = job

	s.scheduler.StartAsync()
	logging.Info("Catalog refresh scheduled", "schedule", s.schedule, "next_run", s.NextRun())

	s.startHealthMonitoring()
	return nil
}

// Stop stops scheduled refreshes and the staleness monitor
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.scheduler.Stop()
	})
}

// NextRun returns the next scheduled refresh, or the zero time when none is scheduled
func (s *Scheduler) NextRun() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

// Refresh rebuilds the catalogs now. It is a no-op while another refresh runs.
func (s *Scheduler) Refresh() error {
	return s.update(s.refresher)
}

// update loads a new set with loader and swaps it in
func (s *Scheduler) update(loader interfaces.Loader) error {
	if !s.store.BeginUpdate() {
		logging.Info("Catalog update already in progress, skipping")
		metrics.CatalogRefreshTotals.WithLabelValues(ResultSkipped).Inc()
		return nil
	}
	defer s.store.EndUpdate()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), s.loadTimeout)
	defer cancel()

	set, err := loader.Load(ctx)
	if err != nil {
		metrics.CatalogRefreshTotals.WithLabelValues(ResultFailure).Inc()
		return err
	}

	old := s.store.Swap(set)
	metrics.CatalogRefreshTotals.WithLabelValues(ResultSuccess).Inc()
	logging.Info("Catalog update completed", "backend", set.Backend, "duration", time.Since(start).String())

	s.retire(old)
	return nil
}

// retire closes a replaced set once in-flight queries have had time to finish
func (s *Scheduler) retire(old *interfaces.CatalogSet) {
	if old == nil {
		return
	}
	time.AfterFunc(s.retireAfter, func() {
		if err := old.Close(); err != nil {
			logging.Warn("Failed to close retired catalogs", "error", err)
		}
	})
}

// startHealthMonitoring warns when scheduled refreshes stop landing
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.checkStale(time.Now())
			}
		}
	}()
}

// checkStale reports whether the data is older than a missed refresh would explain
func (s *Scheduler) checkStale(now time.Time) bool {
	lastUpdate := s.store.GetLastUpdated()
	if lastUpdate.IsZero() || now.Sub(lastUpdate) <= staleAfter {
		return false
	}
	logging.Warn("Catalogs haven't been updated in over 25 hours", "last_update", lastUpdate.Format(time.RFC3339))
	return true
}
