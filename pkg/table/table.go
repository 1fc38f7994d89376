// Package table holds the node table that flows through the pipeline.
//
// A [Table] is an ordered list of equally long columns. Columns supplied by
// the caller are never modified or reordered; pipeline stages only append
// new columns. This keeps the caller's attributes intact while each stage
// decorates rows with cluster labels, metrics, and coordinates.
package table

import (
	"fmt"
	"slices"
)

// Column is a named, ordered sequence of cell values.
type Column struct {
	Name   string
	Values []any
}

// Table is a column-oriented node table. The zero value is an empty table
// with no rows.
//
// Table is not safe for concurrent use.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New creates a table from the given columns. All columns must share the
// same length and names must be unique.
func New(columns ...Column) (*Table, error) {
	t := &Table{index: make(map[string]int)}
	for i, c := range columns {
		if i == 0 {
			t.rows = len(c.Values)
		}
		if err := t.Append(c.Name, c.Values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromRecords builds a table from a header and string records, as read
// from a CSV file.
func FromRecords(header []string, records [][]string) (*Table, error) {
	cols := make([]Column, len(header))
	for i, name := range header {
		cols[i] = Column{Name: name, Values: make([]any, len(records))}
	}
	for r, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("record %d has %d fields, want %d", r, len(rec), len(header))
		}
		for i, v := range rec {
			cols[i].Values[r] = v
		}
	}
	return New(cols...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the values of a column. The returned slice must not be
// modified.
func (t *Table) Column(name string) ([]any, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i].Values, true
}

// Strings returns a column rendered as strings; nil cells become "".
func (t *Table) Strings(name string) ([]string, bool) {
	vals, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = Cell(v)
	}
	return out, true
}

// Append adds a column at the end of the table. The first column of an
// empty table fixes the row count.
func (t *Table) Append(name string, values []any) error {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if name == "" {
		return fmt.Errorf("column name must not be empty")
	}
	if _, dup := t.index[name]; dup {
		return fmt.Errorf("duplicate column %q", name)
	}
	if len(t.columns) == 0 {
		t.rows = len(values)
	} else if len(values) != t.rows {
		return fmt.Errorf("column %q has %d values, want %d", name, len(values), t.rows)
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, Column{Name: name, Values: slices.Clone(values)})
	return nil
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for c, col := range t.columns {
		row[c] = col.Values[i]
	}
	return row
}

// Clone returns a copy that can be appended to without touching t.
func (t *Table) Clone() *Table {
	out := &Table{index: make(map[string]int, len(t.index)), rows: t.rows}
	for _, c := range t.columns {
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, Column{Name: c.Name, Values: slices.Clone(c.Values)})
	}
	return out
}

// Cell renders a single value the way table writers print it.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return fmt.Sprintf("%g", x)
	case *float64:
		if x == nil {
			return ""
		}
		return fmt.Sprintf("%g", *x)
	default:
		return fmt.Sprint(x)
	}
}
