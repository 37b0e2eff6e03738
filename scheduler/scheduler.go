// Package scheduler provides automated generation scheduling and staleness
// monitoring for the prohibited substances service. It runs the generation
// pipeline on a cron-style schedule and coordinates refreshes with the data
// container using dependency injection.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/gooosetavo/dod-prohibited/interfaces"
	"github.com/gooosetavo/dod-prohibited/logging"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler runs the generation pipeline twice a day and monitors dataset
// staleness.
type Scheduler struct {
	dataStore interfaces.DataStore
	pipeline  *Pipeline
	scheduler *gocron.Scheduler
	stop      chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(dataStore interfaces.DataStore, pipeline *Pipeline) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		pipeline:  pipeline,
		scheduler: gocron.NewScheduler(time.Local),
		stop:      make(chan struct{}),
	}
}

// Start performs the initial generation run and schedules the recurring
// ones at 06:00 and 18:00 daily.
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.pipeline.Run(context.Background()); err != nil {
		logging.Error("Failed to perform initial generation run", "error", err)
		return fmt.Errorf("initial generation run failed: %w", err)
	}

	// Schedule updates at 06:00 and 18:00 daily
	_, err := s.scheduler.Every(1).Days().At("06:00;18:00").Do(func() {
		if err := s.pipeline.Run(context.Background()); err != nil {
			logging.Error("Failed to run generation", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule generation runs", "error", err)
		return fmt.Errorf("failed to schedule generation runs: %w", err)
	}

	s.scheduler.StartAsync()

	// Start staleness monitoring
	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler and the staleness monitor.
func (s *Scheduler) Stop() {
	close(s.stop)
	s.scheduler.Stop()
}

// startHealthMonitoring warns when the dataset has gone stale. Two runs a
// day means anything over 25 hours signals repeated failures.
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				lastUpdate := s.dataStore.GetLastUpdated()
				if time.Since(lastUpdate) > 25*time.Hour {
					logging.Warn("Data hasn't been updated in over 25 hours")
				}
			}
		}
	}()
}
