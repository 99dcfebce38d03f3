// Package importer reconciles WordPress WXR product exports against the catalog.
//
// One run parses every document, indexes attachments, then walks the product items
// in order: resolve the category, reconcile the product by SKU or slug, and synthesize
// its color × size variants. Items are processed one at a time; the run stops at the
// first item error unless Options.SkipInvalid is set.
package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tkshop/catalog-service/internal/catalog"
	"github.com/tkshop/catalog-service/internal/pkg/runid"
	"github.com/tkshop/catalog-service/internal/wxr"
)

const tracerName = "github.com/tkshop/catalog-service/internal/importer"

// Importer runs imports against one store
type Importer struct {
	store    catalog.Store
	log      zerolog.Logger
	observer Observer
	tracer   trace.Tracer
	newRunID func() string
}

// Option customizes an Importer
type Option func(*Importer)

// WithLogger replaces the global zerolog logger
func WithLogger(l zerolog.Logger) Option {
	return func(i *Importer) { i.log = l }
}

// WithObserver registers a callback for state transitions
func WithObserver(o Observer) Option {
	return func(i *Importer) { i.observer = o }
}

// WithRunID makes every run use the given id, for callers that allocate ids up front
func WithRunID(id string) Option {
	return func(i *Importer) { i.newRunID = func() string { return id } }
}

// New creates an importer over store
func New(store catalog.Store, opts ...Option) *Importer {
	imp := &Importer{
		store:    store,
		log:      log.Logger,
		tracer:   otel.Tracer(tracerName),
		newRunID: runid.New,
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Import runs one import over docs and always returns a complete tally.
// Failures are recorded in the result, never returned or panicked.
func (imp *Importer) Import(ctx context.Context, docs [][]byte, opts Options) *Result {
	started := time.Now()
	result := &Result{
		RunID:     imp.newRunID(),
		State:     StateIdle,
		Errors:    []string{},
		Warnings:  []string{},
		StartedAt: started,
	}
	logger := imp.log.With().Str("run_id", result.RunID).Logger()

	ctx, span := imp.tracer.Start(ctx, "importer.Import", trace.WithAttributes(
		attribute.String("run_id", result.RunID),
		attribute.Int("documents", len(docs)),
	))
	defer span.End()

	s := &Session{
		store:    imp.store,
		result:   result,
		log:      logger,
		observer: imp.observer,
	}
	s.enter(StateIdle, 0)

	defer func() {
		s.enter(StateAggregating, 0)
		result.Success = len(result.Errors) == 0
		result.Duration = time.Since(started)
		runDuration.Observe(result.Duration.Seconds())
		runsTotal.WithLabelValues(outcome(result)).Inc()
		span.SetAttributes(
			attribute.Int("processed", result.Processed),
			attribute.Int("errors", len(result.Errors)),
		)
		if !result.Success {
			span.SetStatus(codes.Error, result.Errors[0])
		}
		s.enter(StateDone, 0)
		logger.Info().
			Bool("success", result.Success).
			Dur("duration", result.Duration).
			Msg("Import finished: " + result.Summary())
	}()

	if err := opts.Validate(); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	pricing, err := NewPricingStrategy(opts.Pricing, opts)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	s.opts = opts
	s.pricing = pricing
	s.colors = wxr.NewColorFilter(opts.ColorDenylist)

	s.enter(StateParsing, 0)
	items, err := wxr.Parse(docs)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		logger.Error().Err(err).Msg("Parse failed")
		return result
	}
	s.attachments = wxr.BuildAttachmentIndex(items)
	logger.Info().
		Int("items", len(items)).
		Int("attachments", len(s.attachments)).
		Str("pricing", pricing.Name()).
		Msg("Parsed WXR documents")

	s.categories, err = loadCategories(ctx, imp.store, opts.CategoryMapping)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("import cancelled: %v", err))
			logger.Warn().Err(err).Int("row", it.Row).Msg("Import cancelled")
			break
		}
		if !it.IsImportable() {
			continue
		}

		s.enter(StatePerItem, it.Row)
		if err := s.runItem(ctx, imp.tracer, it); err != nil {
			result.addError(it.Row, err)
			itemsTotal.WithLabelValues("failed").Inc()
			logger.Warn().Err(err).Int("row", it.Row).Str("title", it.Title).Msg("Item failed")
			if !opts.SkipInvalid {
				break
			}
		}
	}
	return result
}

// runItem wraps processItem in a span and turns panics from store implementations into errors
func (s *Session) runItem(ctx context.Context, tracer trace.Tracer, it wxr.Item) (err error) {
	ctx, span := tracer.Start(ctx, "importer.item", trace.WithAttributes(attribute.Int("row", it.Row)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	return s.processItem(ctx, it)
}

func (s *Session) processItem(ctx context.Context, it wxr.Item) error {
	if strings.TrimSpace(it.Title) == "" {
		return ErrMissingTitle
	}

	tax := wxr.ExtractTaxonomy(it, s.colors)
	for _, rejected := range tax.Rejected {
		s.result.addWarning(it.Row, "color value %q looks like a fabric descriptor, ignored", rejected)
	}

	categoryID, err := s.resolveCategory(ctx, it.Row, tax.Category)
	if err != nil {
		return err
	}

	stock, err := parseStock(it)
	if err != nil {
		return err
	}
	images := s.attachments.Images(it)

	raw, hasRaw := it.MetaValue(wxr.MetaPrice)
	prices := PriceInput{
		Sizes:    tax.Sizes,
		Explicit: ExplicitPrices(it.MetaValues(wxr.MetaPrice)),
		Raw:      raw,
		HasRaw:   hasRaw,
	}
	base, err := s.pricing.BasePrice(prices)
	if err != nil {
		return err
	}

	product := s.buildProduct(it, tax, categoryID, base, stock, images)
	saved, err := s.reconcileProduct(ctx, it.Row, product)
	if err != nil {
		return err
	}
	if saved == nil {
		s.result.Processed++
		return nil
	}

	explicitSKU, _ := it.MetaValue(wxr.MetaSKU)
	planned := s.planVariants(saved, tax, prices, strings.TrimSpace(explicitSKU))
	if err := s.syncVariants(ctx, it.Row, saved, planned, images); err != nil {
		return err
	}

	s.result.Processed++
	s.log.Debug().
		Int("row", it.Row).
		Str("sku", saved.SKU).
		Int("variants", len(planned)).
		Msg("Imported product")
	return nil
}

func outcome(r *Result) string {
	for _, e := range r.Errors {
		if strings.HasPrefix(e, "import cancelled") {
			return "cancelled"
		}
	}
	if len(r.Errors) > 0 {
		return "failed"
	}
	return "success"
}
