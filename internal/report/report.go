// Package report renders import runs as XLSX workbooks for merchandisers
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tkshop/catalog-service/internal/runs"
)

// Sheet names
const (
	SheetSummary  = "Summary"
	SheetSources  = "Sources"
	SheetErrors   = "Errors"
	SheetWarnings = "Warnings"
)

// WriteXLSX writes rec as a workbook with summary, sources, errors and warnings sheets
func WriteXLSX(w io.Writer, rec *runs.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetSources, SheetErrors, SheetWarnings} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeRows(f, SheetSummary, summaryRows(rec)); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(summaryRows(rec))), bold); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}

	sources := [][]interface{}{{"Name", "URL", "Checksum", "Size", "Archive key"}}
	for _, s := range rec.Sources {
		sources = append(sources, []interface{}{s.Name, s.URL, s.Checksum, s.Size, s.ArchiveKey})
	}
	if err := writeRows(f, SheetSources, sources); err != nil {
		return err
	}

	var errs, warnings []string
	if rec.Result != nil {
		errs, warnings = rec.Result.Errors, rec.Result.Warnings
	} else if rec.Error != "" {
		errs = []string{rec.Error}
	}
	if err := writeRows(f, SheetErrors, messageRows(errs)); err != nil {
		return err
	}
	if err := writeRows(f, SheetWarnings, messageRows(warnings)); err != nil {
		return err
	}

	for _, sheet := range []string{SheetSources, SheetErrors, SheetWarnings} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("failed to style %s header: %w", sheet, err)
		}
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetErrors, "B", "B", 100); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetWarnings, "B", "B", 100); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteXLSXFile writes the workbook to path
func WriteXLSXFile(path string, rec *runs.Record) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := WriteXLSX(out, rec); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func summaryRows(rec *runs.Record) [][]interface{} {
	rows := [][]interface{}{
		{"Run ID", rec.ID},
		{"Trigger", string(rec.Trigger)},
		{"Status", string(rec.Status)},
		{"Created at", rec.CreatedAt.Format(time.RFC3339)},
	}
	if rec.CompletedAt != nil {
		rows = append(rows, []interface{}{"Completed at", rec.CompletedAt.Format(time.RFC3339)})
	}
	if r := rec.Result; r != nil {
		rows = append(rows,
			[]interface{}{"Success", r.Success},
			[]interface{}{"Duration (s)", r.Duration.Seconds()},
			[]interface{}{"Processed", r.Processed},
			[]interface{}{"Created", r.Created},
			[]interface{}{"Updated", r.Updated},
			[]interface{}{"Variants created", r.VariantsCreated},
			[]interface{}{"Variants updated", r.VariantsUpdated},
			[]interface{}{"Errors", len(r.Errors)},
			[]interface{}{"Warnings", len(r.Warnings)},
		)
	}
	return rows
}

func messageRows(messages []string) [][]interface{} {
	rows := [][]interface{}{{"#", "Message"}}
	for i, m := range messages {
		rows = append(rows, []interface{}{i + 1, m})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
