package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpclient "github.com/tkshop/catalog-service/internal/http"
	"github.com/tkshop/catalog-service/internal/ingestion/zip"
	"github.com/tkshop/catalog-service/internal/storage"
)

// DefaultFetchConcurrency bounds parallel downloads within one run
const DefaultFetchConcurrency = 4

// Source is one WXR document to import. Exactly one of Body, Path or URL is used, in that order.
type Source struct {
	Name string
	Body []byte
	Path string
	URL  string
}

// Loaded is a source with its content in memory
type Loaded struct {
	Source
	Content     []byte
	ContentType string
	Checksum    string
	ArchiveKey  string
}

// FetchPhase loads every source concurrently and returns them in input order.
// Import order is document order, so results keep their slot regardless of completion order.
func FetchPhase(ctx context.Context, client *httpclient.Client, sources []Source, concurrency int) ([]Loaded, error) {
	if concurrency <= 0 {
		concurrency = DefaultFetchConcurrency
	}
	loaded := make([]Loaded, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, src := range sources {
		g.Go(func() error {
			l, err := load(gctx, client, src)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", src.displayName(), err)
			}
			loaded[i] = *l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return loaded, nil
}

func load(ctx context.Context, client *httpclient.Client, src Source) (*Loaded, error) {
	l := &Loaded{Source: src}
	switch {
	case src.Body != nil:
		l.Content = src.Body
	case src.Path != "":
		content, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, err
		}
		l.Content = content
		if l.Name == "" {
			l.Name = filepath.Base(src.Path)
		}
	case src.URL != "":
		if client == nil {
			return nil, fmt.Errorf("no HTTP client configured")
		}
		feed, err := client.Fetch(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		l.Content = feed.Body
		l.ContentType = feed.ContentType
		if l.Name == "" {
			l.Name = src.URL
		}
		log.Info().Str("url", src.URL).Int("bytes", len(feed.Body)).Msg("Fetched feed")
	default:
		return nil, fmt.Errorf("source has no body, path or URL")
	}
	if l.Name == "" {
		l.Name = "document"
	}
	l.Checksum = storage.ComputeChecksum(l.Content)
	return l, nil
}

// ExpandPhase replaces ZIP sources with the documents they contain, keeping their position
func ExpandPhase(ctx context.Context, loaded []Loaded) ([]Loaded, error) {
	out := make([]Loaded, 0, len(loaded))
	for _, l := range loaded {
		if !zip.IsArchive(l.Content) {
			out = append(out, l)
			continue
		}
		entries, err := zip.Expand(ctx, l.Content, zip.DefaultExpandOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to expand %s: %w", l.Name, err)
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("archive %s contains no XML documents", l.Name)
		}
		for _, e := range entries {
			out = append(out, Loaded{
				Source:      Source{Name: l.Name + "/" + e.Name, URL: l.URL},
				Content:     e.Content,
				ContentType: "application/xml",
				Checksum:    storage.ComputeChecksum(e.Content),
			})
		}
		log.Debug().Str("source", l.Name).Int("documents", len(entries)).Msg("Expanded archive")
	}
	return out, nil
}

// ArchivePhase stores each loaded document once per checksum and day.
// Archive failures are logged and do not fail the run.
func ArchivePhase(ctx context.Context, archive storage.Storage, runID string, loaded []Loaded) {
	if archive == nil {
		return
	}
	now := time.Now()
	for i := range loaded {
		l := &loaded[i]
		key, err := storage.ArchiveFeed(ctx, archive, l.Content, storage.Metadata{
			ContentType:  l.ContentType,
			OriginalName: l.Name,
			SourceURL:    l.URL,
			RunID:        runID,
			ArchivedAt:   now,
		})
		if err != nil {
			log.Warn().Err(err).Str("run_id", runID).Str("source", l.Name).Msg("Failed to archive feed")
			continue
		}
		l.ArchiveKey = key
	}
}

func (s Source) displayName() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Path != "":
		return s.Path
	case s.URL != "":
		return s.URL
	}
	return "document"
}
