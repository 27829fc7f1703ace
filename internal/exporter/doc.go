// Package exporter writes merged agricultural datasets to CSV and Excel.
//
// CSVWriter handles file-based CSV output with UTF-8 BOM for Excel
// compatibility and a streaming variant for large datasets. StreamTable
// serves CSV straight into an HTTP response. ExcelExporter builds an
// xlsx workbook with one sheet per source plus the merged sheet.
package exporter
