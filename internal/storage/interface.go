// Package storage archives the raw feeds each import run consumed
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for keys that hold no object
var ErrNotFound = errors.New("storage: object not found")

// Metadata describes an archived feed
type Metadata struct {
	ContentType  string    `json:"contentType,omitempty"`
	OriginalName string    `json:"originalName,omitempty"`
	SourceURL    string    `json:"sourceUrl,omitempty"`
	RunID        string    `json:"runId,omitempty"`
	ArchivedAt   time.Time `json:"archivedAt"`
}

// FileInfo is what GetInfo reports about a stored object
type FileInfo struct {
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
	Metadata   *Metadata `json:"metadata,omitempty"`
}

// Storage is a flat key/value object store
type Storage interface {
	Put(ctx context.Context, key string, content []byte, metadata *Metadata) error
	Get(ctx context.Context, key string) ([]byte, error)
	GetInfo(ctx context.Context, key string) (*FileInfo, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	// List returns the keys starting with prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)
}
