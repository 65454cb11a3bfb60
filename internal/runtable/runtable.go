// Package runtable builds the table mapping run indices to parameter values.
package runtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/ahrenberg/split-nlogo-experiment/internal/expand"
)

// IndexColumn heads the run index column.
const IndexColumn = "Experiment number"

// Table accumulates run records. The header is fixed by the first record
// added; every later record must carry the same variables in the same order.
type Table struct {
	variables []string
	rows      [][]string
	started   bool
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// Add appends the row for rec.
func (t *Table) Add(rec expand.Record) error {
	names := rec.Values.Names()
	if !t.started {
		t.variables = names
		t.started = true
	} else if !slices.Equal(t.variables, names) {
		return fmt.Errorf("run %d has variables %v, table has %v", rec.Index, names, t.variables)
	}

	row := make([]string, 0, len(names)+1)
	row = append(row, strconv.Itoa(rec.Index))
	row = append(row, rec.Values.Values()...)
	t.rows = append(t.rows, row)
	return nil
}

// Header returns the header row.
func (t *Table) Header() []string {
	return append([]string{IndexColumn}, t.variables...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns the header followed by one row per record, in insertion order.
func (t *Table) Rows() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.Header())
	for _, r := range t.rows {
		out = append(out, slices.Clone(r))
	}
	return out
}

// WriteCSV writes all rows as CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Rows()); err != nil {
		return fmt.Errorf("write run table: %w", err)
	}
	return nil
}
