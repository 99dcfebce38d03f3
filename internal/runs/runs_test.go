package runs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkshop/catalog-service/internal/importer"
)

func TestRecord_Finish(t *testing.T) {
	r := &Record{ID: "imp_1", Status: StatusRunning}
	r.Finish(&importer.Result{Success: true})
	assert.Equal(t, StatusCompleted, r.Status)
	assert.NotNil(t, r.CompletedAt)

	r.Finish(&importer.Result{Success: false, Errors: []string{"item 1: missing title"}})
	assert.Equal(t, StatusFailed, r.Status)

	failed := &Record{ID: "imp_2"}
	failed.Fail(errors.New("fetch failed"))
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "fetch failed", failed.Error)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, &Record{
			ID:        fmt.Sprintf("imp_%d", i),
			Status:    StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := s.Get(ctx, "imp_3")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	got.Status = StatusRunning
	require.NoError(t, s.Save(ctx, got))
	got, err = s.Get(ctx, "imp_3")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	page, total, err := s.List(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "imp_3", page[0].ID)
	assert.Equal(t, "imp_2", page[1].ID)

	empty, _, err := s.List(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
