package dataset

import (
	"math"
	"sort"
	"time"
)

// MergeByDate aligns the given series on the union of their date indices.
// The resulting table is strictly date-sorted; cells with no observation
// are NaN until filled.
func MergeByDate(series ...*Series) *Table {
	t := NewTable()

	// Union of all date indices
	seen := make(map[time.Time]struct{})
	for _, s := range series {
		if s == nil {
			continue
		}
		for d := range s.points {
			seen[d] = struct{}{}
		}
	}

	t.Dates = make([]time.Time, 0, len(seen))
	for d := range seen {
		t.Dates = append(t.Dates, d)
	}
	sort.Slice(t.Dates, func(i, j int) bool { return t.Dates[i].Before(t.Dates[j]) })

	// Align each column against the merged index
	for _, s := range series {
		if s == nil {
			continue
		}
		col := make([]float64, len(t.Dates))
		for i, d := range t.Dates {
			if v, ok := s.points[d]; ok {
				col[i] = v
			} else {
				col[i] = math.NaN()
			}
		}
		t.Columns[s.Name] = col
		t.order = append(t.order, s.Name)
	}

	return t
}

// ForwardFill propagates the last known value over missing cells in a column.
// Leading missing cells stay missing.
func (t *Table) ForwardFill(column string) {
	col, ok := t.Columns[column]
	if !ok {
		return
	}

	last := math.NaN()
	for i, v := range col {
		if IsMissing(v) {
			col[i] = last
		} else {
			last = v
		}
	}
}

// BackFill propagates the next known value backwards over missing cells.
// Trailing missing cells stay missing.
func (t *Table) BackFill(column string) {
	col, ok := t.Columns[column]
	if !ok {
		return
	}

	next := math.NaN()
	for i := len(col) - 1; i >= 0; i-- {
		if IsMissing(col[i]) {
			col[i] = next
		} else {
			next = col[i]
		}
	}
}

// FillGaps applies forward-fill then back-fill to every column so that no
// gaps remain inside the covered range. A column with no observations at
// all stays entirely missing.
func (t *Table) FillGaps() {
	for _, name := range t.order {
		t.ForwardFill(name)
		t.BackFill(name)
	}
}

// FilterRange returns a new table restricted to rows with from <= date <= to.
// Zero time values leave the corresponding bound open.
func (t *Table) FilterRange(from, to time.Time) *Table {
	out := NewTable()
	out.order = append(out.order, t.order...)
	for _, name := range t.order {
		out.Columns[name] = nil
	}

	for i, d := range t.Dates {
		if !from.IsZero() && d.Before(Day(from)) {
			continue
		}
		if !to.IsZero() && d.After(Day(to)) {
			continue
		}
		out.Dates = append(out.Dates, d)
		for _, name := range t.order {
			out.Columns[name] = append(out.Columns[name], t.Columns[name][i])
		}
	}

	return out
}

// FilterYears returns a new table keeping only rows whose year is in the
// given set. An empty set keeps everything.
func (t *Table) FilterYears(years []int) *Table {
	if len(years) == 0 {
		return t.FilterRange(time.Time{}, time.Time{})
	}

	keep := make(map[int]struct{}, len(years))
	for _, y := range years {
		keep[y] = struct{}{}
	}

	out := NewTable()
	out.order = append(out.order, t.order...)
	for _, name := range t.order {
		out.Columns[name] = nil
	}

	for i, d := range t.Dates {
		if _, ok := keep[d.Year()]; !ok {
			continue
		}
		out.Dates = append(out.Dates, d)
		for _, name := range t.order {
			out.Columns[name] = append(out.Columns[name], t.Columns[name][i])
		}
	}

	return out
}

// Years returns the distinct years covered by the table, ascending
func (t *Table) Years() []int {
	seen := make(map[int]struct{})
	for _, d := range t.Dates {
		seen[d.Year()] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
