package dataset

import (
	"math"
	"sort"
	"time"
)

// Well-known column names shared across sources, the merge step and exports.
const (
	ColRainfall   = "rain_mm"
	ColTempMax    = "temp_max_c"
	ColNDVI       = "ndvi"
	ColPriceClose = "price_close"
)

// Day normalizes a timestamp to midnight UTC so that observations from
// different sources land on the same date key.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Series is a named, date-keyed column of float observations.
type Series struct {
	Name   string
	points map[time.Time]float64
}

// NewSeries creates an empty series with the given column name
func NewSeries(name string) *Series {
	return &Series{
		Name:   name,
		points: make(map[time.Time]float64),
	}
}

// Set records a value for the given date, overwriting any previous value
func (s *Series) Set(date time.Time, value float64) {
	s.points[Day(date)] = value
}

// Get returns the value for a date and whether it exists
func (s *Series) Get(date time.Time) (float64, bool) {
	v, ok := s.points[Day(date)]
	return v, ok
}

// Len returns the number of observations
func (s *Series) Len() int {
	return len(s.points)
}

// Dates returns the observation dates in ascending order
func (s *Series) Dates() []time.Time {
	dates := make([]time.Time, 0, len(s.points))
	for d := range s.points {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Table is a date-indexed table of aligned columns. Missing cells are NaN.
// Dates are strictly ascending; every column has exactly len(Dates) cells.
type Table struct {
	Dates   []time.Time
	Columns map[string][]float64
	order   []string
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{
		Columns: make(map[string][]float64),
	}
}

// ColumnNames returns the column names in insertion order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

// NumRows returns the number of rows in the table
func (t *Table) NumRows() int {
	return len(t.Dates)
}

// Value returns the cell for a column at a row index, NaN if the column
// does not exist
func (t *Table) Value(column string, row int) float64 {
	col, ok := t.Columns[column]
	if !ok || row < 0 || row >= len(col) {
		return math.NaN()
	}
	return col[row]
}

// IsMissing reports whether a cell holds no observation
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Row returns the date and all column values for a row index
func (t *Table) Row(i int) (time.Time, map[string]float64) {
	values := make(map[string]float64, len(t.order))
	for _, name := range t.order {
		values[name] = t.Columns[name][i]
	}
	return t.Dates[i], values
}
