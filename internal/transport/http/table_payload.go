package http

import (
	"agronexus/internal/dataset"
)

// TablePayload is the JSON shape the dashboard charts consume. Missing
// cells serialize as null, which encoding/json cannot do for NaN floats.
type TablePayload struct {
	Dates   []string              `json:"dates"`
	Columns map[string][]*float64 `json:"columns"`
	Rows    int                   `json:"rows"`
}

// NewTablePayload converts a table into its JSON representation
func NewTablePayload(t *dataset.Table) *TablePayload {
	p := &TablePayload{
		Dates:   make([]string, t.NumRows()),
		Columns: make(map[string][]*float64, len(t.ColumnNames())),
		Rows:    t.NumRows(),
	}
	for i, d := range t.Dates {
		p.Dates[i] = d.Format("2006-01-02")
	}
	for _, name := range t.ColumnNames() {
		col := make([]*float64, t.NumRows())
		for i := 0; i < t.NumRows(); i++ {
			if v := t.Value(name, i); !dataset.IsMissing(v) {
				value := v
				col[i] = &value
			}
		}
		p.Columns[name] = col
	}
	return p
}
