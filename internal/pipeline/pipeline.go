// Package pipeline runs imports end to end under the run lock. Sources are loaded,
// ZIP bundles expanded, documents archived and imported, and the run is recorded.
// HTTP, cron and CLI entry points all go through a Runner.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tkshop/catalog-service/internal/catalog"
	httpclient "github.com/tkshop/catalog-service/internal/http"
	"github.com/tkshop/catalog-service/internal/importer"
	"github.com/tkshop/catalog-service/internal/pkg/runid"
	"github.com/tkshop/catalog-service/internal/runlock"
	"github.com/tkshop/catalog-service/internal/runs"
	"github.com/tkshop/catalog-service/internal/storage"
)

// DefaultLockKey serializes imports into one catalog
const DefaultLockKey = "catalog"

// Runner wires the import phases together
type Runner struct {
	store       catalog.Store
	runs        runs.Store
	locker      runlock.Locker
	client      *httpclient.Client
	archive     storage.Storage
	concurrency int
	lockKey     string
	log         zerolog.Logger
	observer    importer.Observer
}

// Option customizes a Runner
type Option func(*Runner)

// WithRunStore records runs somewhere other than process memory
func WithRunStore(s runs.Store) Option {
	return func(r *Runner) { r.runs = s }
}

// WithLocker replaces the in-process run lock
func WithLocker(l runlock.Locker) Option {
	return func(r *Runner) { r.locker = l }
}

// WithHTTPClient enables URL sources
func WithHTTPClient(c *httpclient.Client) Option {
	return func(r *Runner) { r.client = c }
}

// WithArchive stores every imported document
func WithArchive(s storage.Storage) Option {
	return func(r *Runner) { r.archive = s }
}

// WithFetchConcurrency bounds parallel downloads
func WithFetchConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

// WithLogger replaces the global logger
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithObserver forwards importer state transitions
func WithObserver(o importer.Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// NewRunner creates a runner importing into store
func NewRunner(store catalog.Store, opts ...Option) *Runner {
	r := &Runner{
		store:       store,
		runs:        runs.NewMemoryStore(),
		locker:      runlock.NewLocal(),
		concurrency: DefaultFetchConcurrency,
		lockKey:     DefaultLockKey,
		log:         log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Runs exposes the run store for pollers
func (r *Runner) Runs() runs.Store {
	return r.runs
}

// Run imports sources synchronously and returns the finished record.
// The error is non-nil only when the run could not be recorded or the lock is held;
// import failures are reported in the record.
func (r *Runner) Run(ctx context.Context, trigger runs.Trigger, sources []Source, opts importer.Options) (*runs.Record, error) {
	release, err := r.locker.Acquire(ctx, r.lockKey)
	if err != nil {
		return nil, err
	}
	defer release()

	rec := newRecord(trigger)
	if err := r.runs.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}
	r.execute(ctx, rec, sources, opts)
	return rec, nil
}

// Submit starts an import in the background and returns the pending record.
// The lock is taken before returning so a concurrent submit fails fast with runlock.ErrLocked.
func (r *Runner) Submit(ctx context.Context, trigger runs.Trigger, sources []Source, opts importer.Options) (*runs.Record, error) {
	release, err := r.locker.Acquire(ctx, r.lockKey)
	if err != nil {
		return nil, err
	}

	rec := newRecord(trigger)
	if err := r.runs.Save(ctx, rec); err != nil {
		release()
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}
	pending := *rec

	bg := context.WithoutCancel(ctx)
	go func() {
		defer release()
		r.execute(bg, rec, sources, opts)
	}()
	return &pending, nil
}

func newRecord(trigger runs.Trigger) *runs.Record {
	return &runs.Record{
		ID:        runid.New(),
		Trigger:   trigger,
		Status:    runs.StatusPending,
		Sources:   []runs.Source{},
		CreatedAt: time.Now(),
	}
}

func (r *Runner) execute(ctx context.Context, rec *runs.Record, sources []Source, opts importer.Options) {
	logger := r.log.With().Str("run_id", rec.ID).Str("trigger", string(rec.Trigger)).Logger()
	rec.Status = runs.StatusRunning
	r.save(ctx, logger, rec)

	logger.Info().Int("sources", len(sources)).Msg("Phase 1: Fetch")
	loaded, err := FetchPhase(ctx, r.client, sources, r.concurrency)
	if err != nil {
		logger.Error().Err(err).Msg("Fetch failed")
		rec.Fail(err)
		r.save(ctx, logger, rec)
		return
	}

	loaded, err = ExpandPhase(ctx, loaded)
	if err != nil {
		logger.Error().Err(err).Msg("Expand failed")
		rec.Fail(err)
		r.save(ctx, logger, rec)
		return
	}

	logger.Info().Int("documents", len(loaded)).Msg("Phase 2: Archive")
	ArchivePhase(ctx, r.archive, rec.ID, loaded)

	docs := make([][]byte, len(loaded))
	for i, l := range loaded {
		docs[i] = l.Content
		rec.Sources = append(rec.Sources, runs.Source{
			Name:       l.Name,
			URL:        l.URL,
			Checksum:   l.Checksum,
			Size:       len(l.Content),
			ArchiveKey: l.ArchiveKey,
		})
	}

	logger.Info().Int("documents", len(docs)).Msg("Phase 3: Import")
	imp := importer.New(r.store,
		importer.WithRunID(rec.ID),
		importer.WithLogger(logger),
		importer.WithObserver(r.observer),
	)
	rec.Finish(imp.Import(ctx, docs, opts))
	r.save(ctx, logger, rec)
}

func (r *Runner) save(ctx context.Context, logger zerolog.Logger, rec *runs.Record) {
	if err := r.runs.Save(ctx, rec); err != nil {
		logger.Warn().Err(err).Msg("Failed to save run record")
	}
}

// IsLocked reports whether err means another import holds the lock
func IsLocked(err error) bool {
	return errors.Is(err, runlock.ErrLocked)
}
