package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tkshop/catalog-service/internal/storage"
)

// CleanupConfig configures retention for archived feeds
type CleanupConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// DefaultCleanupConfig keeps archived feeds for 30 days
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{RetentionDays: 30}
}

// CleanupArchive deletes archived feeds whose archive day is older than the retention window.
// Returns the number of feeds deleted.
func CleanupArchive(ctx context.Context, s storage.Storage, cfg CleanupConfig, now time.Time) (int, error) {
	if cfg.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := now.UTC().AddDate(0, 0, -cfg.RetentionDays).Truncate(24 * time.Hour)

	keys, err := s.List(ctx, "feeds/")
	if err != nil {
		return 0, fmt.Errorf("list archived feeds: %w", err)
	}

	removed := 0
	for _, key := range keys {
		day, ok := archiveDay(key)
		if !ok || !day.Before(cutoff) {
			continue
		}
		if err := s.Delete(ctx, key); err != nil {
			return removed, fmt.Errorf("delete %s: %w", key, err)
		}
		removed++
	}
	return removed, nil
}

// archiveDay extracts the day from feeds/YYYY-MM-DD/<sha>.xml
func archiveDay(key string) (time.Time, bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[0] != "feeds" {
		return time.Time{}, false
	}
	day, err := time.Parse("2006-01-02", parts[1])
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
