package jobs

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkshop/catalog-service/internal/catalog"
	httpclient "github.com/tkshop/catalog-service/internal/http"
	"github.com/tkshop/catalog-service/internal/http/ratelimit"
	"github.com/tkshop/catalog-service/internal/pipeline"
	"github.com/tkshop/catalog-service/internal/runs"
	"github.com/tkshop/catalog-service/internal/storage"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
<item>
	<title>Плед флисовый</title>
	<wp:post_type>product</wp:post_type>
	<wp:status>publish</wp:status>
	<wp:post_name>pled</wp:post_name>
	<category domain="product_cat" nicename="pledy">Пледы</category>
	<wp:postmeta><wp:meta_key>_sku</wp:meta_key><wp:meta_value>PLED-1</wp:meta_value></wp:postmeta>
</item>
</channel>
</rss>`

func TestRunImport(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://shop.test/feed.xml", httpmock.NewStringResponder(200, feedXML))
	client := httpclient.NewClient(ratelimit.Config{InitialBackoffMs: 1, MaxBackoffMs: 1},
		httpclient.WithHTTPClient(&http.Client{Transport: transport}))

	store := catalog.NewMemoryStore()
	runner := pipeline.NewRunner(store, pipeline.WithHTTPClient(client), pipeline.WithLogger(zerolog.Nop()))

	rec, err := RunImport(context.Background(), runner, ImportJob{
		Name:    "nightly",
		URLs:    []string{"http://shop.test/feed.xml"},
	})
	require.NoError(t, err)
	assert.Equal(t, runs.TriggerSchedule, rec.Trigger)
	assert.Equal(t, runs.StatusCompleted, rec.Status)
	assert.Equal(t, 1, rec.Result.Created)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestScheduler_Register(t *testing.T) {
	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	s := NewScheduler(pipeline.NewRunner(catalog.NewMemoryStore()), archive)

	require.NoError(t, s.AddImport(ImportJob{Name: "nightly", Schedule: "0 3 * * *", URLs: []string{"http://shop.test/feed.xml"}}))
	assert.Error(t, s.AddImport(ImportJob{Name: "bad", Schedule: "every day", URLs: []string{"http://shop.test/feed.xml"}}))
	assert.Error(t, s.AddImport(ImportJob{Name: "empty", Schedule: "0 3 * * *"}))
	require.NoError(t, s.AddArchiveCleanup("@daily", DefaultCleanupConfig()))
	assert.Equal(t, 2, s.Entries())

	s.Start()
	<-s.Stop().Done()

	noArchive := NewScheduler(pipeline.NewRunner(catalog.NewMemoryStore()), nil)
	assert.Error(t, noArchive.AddArchiveCleanup("@daily", DefaultCleanupConfig()))
}

func TestCleanupArchive(t *testing.T) {
	ctx := context.Background()
	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)
	old, err := storage.ArchiveFeed(ctx, archive, []byte("old"), storage.Metadata{ArchivedAt: now.AddDate(0, 0, -45)})
	require.NoError(t, err)
	edge, err := storage.ArchiveFeed(ctx, archive, []byte("edge"), storage.Metadata{ArchivedAt: now.AddDate(0, 0, -30)})
	require.NoError(t, err)
	fresh, err := storage.ArchiveFeed(ctx, archive, []byte("fresh"), storage.Metadata{ArchivedAt: now})
	require.NoError(t, err)
	require.NoError(t, archive.Put(ctx, "reports/keep.xlsx", []byte("x"), nil))

	removed, err := CleanupArchive(ctx, archive, DefaultCleanupConfig(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	for key, want := range map[string]bool{old: false, edge: true, fresh: true, "reports/keep.xlsx": true} {
		exists, err := archive.Exists(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, exists, key)
	}

	removed, err = CleanupArchive(ctx, archive, CleanupConfig{RetentionDays: 0}, now)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
