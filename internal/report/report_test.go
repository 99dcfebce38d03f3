package report

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tkshop/catalog-service/internal/importer"
	"github.com/tkshop/catalog-service/internal/runs"
)

func finishedRecord() *runs.Record {
	rec := &runs.Record{
		ID:        "imp_report",
		Trigger:   runs.TriggerCLI,
		Status:    runs.StatusRunning,
		Sources:   []runs.Source{{Name: "export.xml", Checksum: "abc", Size: 1024}},
		CreatedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	rec.Finish(&importer.Result{
		RunID:           "imp_report",
		Processed:       3,
		Created:         2,
		Updated:         1,
		VariantsCreated: 12,
		Errors:          []string{`item 3: invalid stock "many"`},
		Warnings:        []string{`item 1: category "Пледы" created`, `item 2: product "Плед" updated`},
		Duration:        1500 * time.Millisecond,
	})
	return rec
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, finishedRecord()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetSources, SheetErrors, SheetWarnings}, f.GetSheetList())

	id, err := f.GetCellValue(SheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "imp_report", id)

	status, err := f.GetCellValue(SheetSummary, "B3")
	require.NoError(t, err)
	assert.Equal(t, "failed", status)

	rows, err := f.GetRows(SheetWarnings)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, `item 2: product "Плед" updated`, rows[2][1])

	rows, err = f.GetRows(SheetErrors)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `item 3: invalid stock "many"`, rows[1][1])

	rows, err = f.GetRows(SheetSources)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"export.xml", "", "abc", "1024"}, rows[1])
}

func TestWriteXLSX_RunWithoutResult(t *testing.T) {
	rec := &runs.Record{ID: "imp_fail", Trigger: runs.TriggerAPI, CreatedAt: time.Now()}
	rec.Fail(errors.New("failed to load http://shop.test/a.xml: 404"))

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteXLSXFile(path, rec))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	msg, err := f.GetCellValue(SheetErrors, "B2")
	require.NoError(t, err)
	assert.Equal(t, "failed to load http://shop.test/a.xml: 404", msg)
}
