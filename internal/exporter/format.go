package exporter

import (
	"fmt"

	"agronexus/internal/dataset"
)

// formatCell formats a table cell for CSV output. Missing cells render as
// empty fields; observed values keep 2 decimal places so 13.4 appears as
// 13.40 consistently.
func formatCell(v float64) string {
	if dataset.IsMissing(v) {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}
