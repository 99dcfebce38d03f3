package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/tkshop/catalog-service/internal/runs"
)

// ErrInterrupted is recorded on runs that were in flight when the service stopped
var ErrInterrupted = errors.New("service restarted during processing")

const interruptedPageSize = 100

// MarkInterrupted fails every pending or running record. Call it at startup, before
// any run is submitted. Returns the number of records marked.
func MarkInterrupted(ctx context.Context, store runs.Store) (int, error) {
	var stale []runs.Record
	for offset := 0; ; offset += interruptedPageSize {
		page, total, err := store.List(ctx, interruptedPageSize, offset)
		if err != nil {
			return 0, fmt.Errorf("failed to list runs: %w", err)
		}
		for _, rec := range page {
			if rec.Status == runs.StatusPending || rec.Status == runs.StatusRunning {
				stale = append(stale, rec)
			}
		}
		if len(page) == 0 || offset+len(page) >= total {
			break
		}
	}

	for i := range stale {
		rec := &stale[i]
		rec.Fail(ErrInterrupted)
		if err := store.Save(ctx, rec); err != nil {
			return i, fmt.Errorf("failed to mark run %s interrupted: %w", rec.ID, err)
		}
	}
	return len(stale), nil
}
