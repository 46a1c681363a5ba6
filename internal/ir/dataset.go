package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Dataset is a table of survey responses. Every row has len(Columns) cells.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// NewDataset builds a dataset and checks that rows are rectangular.
func NewDataset(columns []string, rows [][]string) (*Dataset, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i+1, len(row), len(columns))
		}
	}
	return &Dataset{Columns: columns, Rows: rows}, nil
}

// Index returns the position of column name, or -1.
func (d *Dataset) Index(name string) int {
	return slices.Index(d.Columns, name)
}

// HasColumn reports whether name is a column of d.
func (d *Dataset) HasColumn(name string) bool {
	return d.Index(name) >= 0
}

// Column returns the cells of column name in row order.
func (d *Dataset) Column(name string) ([]string, bool) {
	idx := d.Index(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// Filter returns the rows whose column equals value. If d has no such
// column every row is returned and ok is false.
func (d *Dataset) Filter(column, value string) (filtered *Dataset, ok bool) {
	idx := d.Index(column)
	if idx < 0 {
		return d, false
	}
	out := &Dataset{Columns: d.Columns}
	for _, row := range d.Rows {
		if row[idx] == value {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, true
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Distribution is a categorical frequency count over one column.
// Order lists categories by first appearance.
type Distribution struct {
	Counts map[string]int
	Order  []string
}

// Count builds the distribution of column in d. Blank cells are not answers
// and are skipped.
func (d *Dataset) Count(column string) (Distribution, error) {
	cells, ok := d.Column(column)
	if !ok {
		return Distribution{}, fmt.Errorf("column %q not found", column)
	}
	dist := Distribution{Counts: make(map[string]int)}
	for _, cell := range cells {
		v := strings.TrimSpace(cell)
		if v == "" {
			continue
		}
		if _, seen := dist.Counts[v]; !seen {
			dist.Order = append(dist.Order, v)
		}
		dist.Counts[v]++
	}
	return dist, nil
}

// Total returns the number of answers counted.
func (dist Distribution) Total() int {
	n := 0
	for _, c := range dist.Counts {
		n += c
	}
	return n
}
