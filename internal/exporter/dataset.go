package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"agronexus/internal/dataset"
)

// DateColumn is the header of the leading date column in exports.
const DateColumn = "date"

// TableHeaders returns the CSV header row for a table: the date column
// followed by the table's columns in order.
func TableHeaders(t *dataset.Table) []string {
	return append([]string{DateColumn}, t.ColumnNames()...)
}

// TableRecords converts a table into CSV records. Missing cells become
// empty fields.
func TableRecords(t *dataset.Table) [][]string {
	names := t.ColumnNames()
	records := make([][]string, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		record := make([]string, 0, len(names)+1)
		record = append(record, t.Dates[i].Format("2006-01-02"))
		for _, name := range names {
			record = append(record, formatCell(t.Value(name, i)))
		}
		records = append(records, record)
	}
	return records
}

// WriteTableCSV writes a merged table into the reports directory.
func (w *CSVWriter) WriteTableCSV(filePath string, t *dataset.Table) error {
	return w.WriteSimpleCSV(filePath, TableHeaders(t), TableRecords(t))
}

// StreamTable writes a table as CSV to an arbitrary writer, for direct
// HTTP downloads. A UTF-8 BOM is emitted first so Excel opens the file
// correctly.
func StreamTable(out io.Writer, t *dataset.Table) error {
	if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(TableHeaders(t)); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range TableRecords(t) {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
