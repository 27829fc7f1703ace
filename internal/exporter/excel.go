package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"agronexus/internal/dataset"
)

// Sheet names in exported workbooks.
const (
	SheetMerged  = "Merged"
	SheetClimate = "Climate"
	SheetSeason  = "Season"
	SheetMarket  = "Market"
)

// sourceSheets maps per-source sheet names to the columns they carry.
var sourceSheets = []struct {
	name    string
	columns []string
}{
	{SheetClimate, []string{dataset.ColTempMax, dataset.ColRainfall}},
	{SheetSeason, []string{dataset.ColNDVI}},
	{SheetMarket, []string{dataset.ColPriceClose}},
}

// ExcelExporter writes merged datasets as Excel workbooks with one sheet
// per source plus the merged sheet.
type ExcelExporter struct{}

// NewExcelExporter creates an Excel exporter
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Write builds the workbook for a table and writes it to out.
func (e *ExcelExporter) Write(out io.Writer, t *dataset.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	// rename the default sheet rather than leaving an empty Sheet1 behind
	if err := f.SetSheetName("Sheet1", SheetMerged); err != nil {
		return fmt.Errorf("failed to name merged sheet: %w", err)
	}
	if err := e.writeSheet(f, SheetMerged, t, t.ColumnNames()); err != nil {
		return err
	}

	for _, src := range sourceSheets {
		columns := presentColumns(t, src.columns)
		if len(columns) == 0 {
			continue
		}
		if _, err := f.NewSheet(src.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", src.name, err)
		}
		if err := e.writeSheet(f, src.name, t, columns); err != nil {
			return err
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// writeSheet streams the date column plus the given table columns into a
// sheet using the excelize stream writer.
func (e *ExcelExporter) writeSheet(f *excelize.File, sheet string, t *dataset.Table, columns []string) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer for %s: %w", sheet, err)
	}

	header := make([]interface{}, 0, len(columns)+1)
	header = append(header, DateColumn)
	for _, name := range columns {
		header = append(header, name)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i := 0; i < t.NumRows(); i++ {
		row := make([]interface{}, 0, len(columns)+1)
		row = append(row, t.Dates[i].Format("2006-01-02"))
		for _, name := range columns {
			v := t.Value(name, i)
			if dataset.IsMissing(v) {
				row = append(row, nil)
			} else {
				row = append(row, v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	return sw.Flush()
}

func presentColumns(t *dataset.Table, candidates []string) []string {
	have := make(map[string]bool)
	for _, name := range t.ColumnNames() {
		have[name] = true
	}
	var out []string
	for _, name := range candidates {
		if have[name] {
			out = append(out, name)
		}
	}
	return out
}
