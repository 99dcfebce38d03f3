// Package runs records import runs so callers can poll them after the fact
package runs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tkshop/catalog-service/internal/importer"
)

// ErrNotFound is returned for unknown run ids
var ErrNotFound = errors.New("runs: run not found")

// Status of a run record
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Trigger names what started a run
type Trigger string

const (
	TriggerAPI      Trigger = "api"
	TriggerSchedule Trigger = "schedule"
	TriggerCLI      Trigger = "cli"
)

// Source is one input document of a run
type Source struct {
	Name       string `json:"name"`
	URL        string `json:"url,omitempty"`
	Checksum   string `json:"checksum,omitempty"`
	Size       int    `json:"size"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

// Record is the persisted view of one run
type Record struct {
	ID          string           `json:"id" jsonschema:"required"`
	Trigger     Trigger          `json:"trigger" jsonschema:"required,enum=api,enum=schedule,enum=cli"`
	Status      Status           `json:"status" jsonschema:"required,enum=pending,enum=running,enum=completed,enum=failed"`
	Sources     []Source         `json:"sources"`
	Result      *importer.Result `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"createdAt" jsonschema:"required"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// Finish stores the result and derives the final status from it
func (r *Record) Finish(result *importer.Result) {
	now := time.Now()
	r.Result = result
	r.CompletedAt = &now
	r.Status = StatusCompleted
	if !result.Success {
		r.Status = StatusFailed
	}
}

// Fail marks a run that never produced a result
func (r *Record) Fail(err error) {
	now := time.Now()
	r.Error = err.Error()
	r.Status = StatusFailed
	r.CompletedAt = &now
}

// Store persists run records
type Store interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// List returns records newest first and the total count
	List(ctx context.Context, limit, offset int) ([]Record, int, error)
}

// MemoryStore keeps records in process
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty run store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Save(ctx context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = *r
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]Record, int, error) {
	s.mu.RLock()
	all := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		all = append(all, r)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	total := len(all)
	if offset >= total {
		return []Record{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}
