// Package scheduler wires up the cron job that periodically collects postings
// crawled since the last successful notification and hands them to the
// notification orchestrator.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/enkou97/ses-job-crawler/internal/metrics"
	"github.com/enkou97/ses-job-crawler/internal/model"
)

// bootstrapWindow bounds the first run when no notification has ever been
// sent, so a fresh deployment does not replay the whole table.
const bootstrapWindow = 24 * time.Hour

// JobSource yields postings crawled at or after a watermark.
type JobSource interface {
	FindSince(ctx context.Context, since time.Time) ([]model.Job, error)
}

// SettingsSource exposes the persisted watermark.
type SettingsSource interface {
	GetOrCreate(ctx context.Context) (*model.NotificationSettings, error)
}

// Orchestrator dispatches a batch of candidate postings to the channels.
type Orchestrator interface {
	NotifyNewJobs(ctx context.Context, jobs []model.Job) error
}

// Scheduler wraps robfig/cron and manages the notification loop.
type Scheduler struct {
	cron     *cron.Cron
	jobs     JobSource
	settings SettingsSource
	notify   Orchestrator
	log      *slog.Logger
	spec     string // cron spec, e.g. "@every 6h"

	running atomic.Bool
	now     func() time.Time
}

// New creates a Scheduler that fires every intervalHours hours.
func New(jobs JobSource, settings SettingsSource, notify Orchestrator, intervalHours int, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cron.DefaultLogger)),
		jobs:     jobs,
		settings: settings,
		notify:   notify,
		log:      log,
		spec:     fmt.Sprintf("@every %dh", intervalHours),
		now:      time.Now,
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so a restart does not wait a full interval to catch up.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("notification scheduler started", "spec", s.spec)

	go s.RunOnce(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler. A run already in flight is not
// interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("notification scheduler stopped")
}

// RunOnce executes a single notification cycle. Overlapping invocations are
// skipped rather than queued.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("notification run still in progress, skipping tick")
		metrics.SchedulerRuns.WithLabelValues("skipped").Inc()
		return
	}
	defer s.running.Store(false)

	runID := uuid.NewString()
	log := s.log.With("run_id", runID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("notification run panicked", "panic", r)
			metrics.SchedulerRuns.WithLabelValues("error").Inc()
		}
	}()

	log.Info("notification run started")

	settings, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		log.Error("failed to load notification settings", "err", err)
		metrics.SchedulerRuns.WithLabelValues("error").Inc()
		return
	}

	since := s.watermark(settings)
	jobs, err := s.jobs.FindSince(ctx, since)
	if err != nil {
		log.Error("failed to load postings since watermark", "since", since, "err", err)
		metrics.SchedulerRuns.WithLabelValues("error").Inc()
		return
	}

	if len(jobs) == 0 {
		log.Info("no postings since last notification", "since", since)
		metrics.SchedulerRuns.WithLabelValues("empty").Inc()
		return
	}

	log.Info("dispatching candidate postings", "since", since, "count", len(jobs))
	if err := s.notify.NotifyNewJobs(ctx, jobs); err != nil {
		log.Error("notification dispatch failed", "err", err)
		metrics.SchedulerRuns.WithLabelValues("error").Inc()
		return
	}

	metrics.SchedulerRuns.WithLabelValues("completed").Inc()
	log.Info("notification run complete")
}

// watermark returns the crawl cutoff for this run: the persisted
// lastNotifiedAt, or now minus the bootstrap window when none is set.
func (s *Scheduler) watermark(settings *model.NotificationSettings) time.Time {
	if settings.LastNotifiedAt != nil {
		return *settings.LastNotifiedAt
	}
	return s.now().Add(-bootstrapWindow)
}
