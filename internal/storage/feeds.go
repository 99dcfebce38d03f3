package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ComputeChecksum returns the hex SHA-256 of content
func ComputeChecksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// BuildFeedKey places a feed under its archive day and content hash
func BuildFeedKey(checksum string, at time.Time) string {
	return fmt.Sprintf("feeds/%s/%s.xml", at.UTC().Format("2006-01-02"), checksum)
}

// ArchiveFeed stores content once per day and checksum and returns its key.
// Re-archiving identical content the same day is a no-op.
func ArchiveFeed(ctx context.Context, s Storage, content []byte, meta Metadata) (string, error) {
	if meta.ArchivedAt.IsZero() {
		meta.ArchivedAt = time.Now()
	}
	key := BuildFeedKey(ComputeChecksum(content), meta.ArchivedAt)

	exists, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		return key, nil
	}
	if err := s.Put(ctx, key, content, &meta); err != nil {
		return "", err
	}
	return key, nil
}
