// Package jobs runs scheduled feed imports and archive housekeeping on cron schedules
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tkshop/catalog-service/internal/importer"
	"github.com/tkshop/catalog-service/internal/pipeline"
	"github.com/tkshop/catalog-service/internal/runs"
	"github.com/tkshop/catalog-service/internal/storage"
)

// ImportJob pulls a fixed set of feed URLs on a schedule.
// A nil Options imports with importer.DefaultOptions.
type ImportJob struct {
	Name     string            `mapstructure:"name"`
	Schedule string            `mapstructure:"schedule"`
	URLs     []string          `mapstructure:"urls"`
	Options  *importer.Options `mapstructure:"options"`
}

// Scheduler owns the cron instance
type Scheduler struct {
	cron    *cron.Cron
	runner  *pipeline.Runner
	archive storage.Storage
	log     zerolog.Logger
	timeout time.Duration
}

// NewScheduler creates a stopped scheduler. archive may be nil when archiving is off.
func NewScheduler(runner *pipeline.Runner, archive storage.Storage) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		archive: archive,
		log:     log.With().Str("component", "scheduler").Logger(),
		timeout: time.Hour,
	}
}

// AddImport registers a scheduled import
func (s *Scheduler) AddImport(job ImportJob) error {
	if len(job.URLs) == 0 {
		return fmt.Errorf("job %s: no feed URLs", job.Name)
	}
	_, err := s.cron.AddFunc(job.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := RunImport(ctx, s.runner, job); err != nil {
			s.log.Warn().Err(err).Str("job", job.Name).Msg("Scheduled import did not run")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.Name, err)
	}
	s.log.Info().Str("job", job.Name).Str("schedule", job.Schedule).Int("urls", len(job.URLs)).Msg("Registered import job")
	return nil
}

// AddArchiveCleanup registers the archive retention job
func (s *Scheduler) AddArchiveCleanup(schedule string, cfg CleanupConfig) error {
	if s.archive == nil {
		return fmt.Errorf("archive cleanup needs an archive storage")
	}
	_, err := s.cron.AddFunc(schedule, func() {
		removed, err := CleanupArchive(context.Background(), s.archive, cfg, time.Now())
		if err != nil {
			s.log.Error().Err(err).Msg("Archive cleanup failed")
			return
		}
		s.log.Info().Int("removed", removed).Int("retention_days", cfg.RetentionDays).Msg("Archive cleanup complete")
	})
	if err != nil {
		return fmt.Errorf("failed to register archive cleanup: %w", err)
	}
	return nil
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and returns a context done when running jobs finish
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunImport runs job once through the pipeline
func RunImport(ctx context.Context, runner *pipeline.Runner, job ImportJob) (*runs.Record, error) {
	sources := make([]pipeline.Source, len(job.URLs))
	for i, url := range job.URLs {
		sources[i] = pipeline.Source{URL: url}
	}
	opts := importer.DefaultOptions()
	if job.Options != nil {
		opts = *job.Options
	}
	rec, err := runner.Run(ctx, runs.TriggerSchedule, sources, opts)
	if err != nil {
		return nil, err
	}
	event := log.Info()
	if rec.Status != runs.StatusCompleted {
		event = log.Warn()
	}
	event.Str("job", job.Name).Str("run_id", rec.ID).Str("status", string(rec.Status)).Msg("Scheduled import finished")
	return rec, nil
}
