package domain

import (
	"sort"
)

// Row maps a column name to its cell. A missing key reads as Null.
type Row map[string]Value

// Table is an ordered set of named columns and the rows that fill them.
// Column sets of tables from the same category are allowed to differ.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Width returns the number of columns.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// HasColumn reports whether the table declares the column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Append adds a row. Keys that are not declared columns are kept in the row but
// are not written out until the column is declared.
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// Get returns the cell at row i, column col.
func (t *Table) Get(i int, col string) Value {
	return t.Rows[i][col]
}

// NullCount counts the rows whose cell in col is Null.
func (t *Table) NullCount(col string) int {
	n := 0
	for _, r := range t.Rows {
		if r[col].IsNull() {
			n++
		}
	}
	return n
}

// DistinctStrings returns the sorted set of rendered non-null values of col.
func (t *Table) DistinctStrings(col string) []string {
	seen := make(map[string]bool)
	for _, r := range t.Rows {
		v := r[col]
		if v.IsNull() {
			continue
		}
		seen[v.String()] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// AddConstantColumn declares name (if needed) and sets it to v on every row.
func (t *Table) AddConstantColumn(name string, v Value) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
	for i := range t.Rows {
		if t.Rows[i] == nil {
			t.Rows[i] = make(Row)
		}
		t.Rows[i][name] = v
	}
}

// MoveToEnd reorders the columns so that cols come last, in the given order.
// Names the table does not declare are ignored.
func (t *Table) MoveToEnd(cols ...string) {
	tail := make(map[string]bool, len(cols))
	for _, c := range cols {
		if t.HasColumn(c) {
			tail[c] = true
		}
	}
	reordered := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !tail[c] {
			reordered = append(reordered, c)
		}
	}
	for _, c := range cols {
		if tail[c] {
			reordered = append(reordered, c)
			delete(tail, c)
		}
	}
	t.Columns = reordered
}

// Record renders row i in column order.
func (t *Table) Record(i int) []string {
	rec := make([]string, len(t.Columns))
	row := t.Rows[i]
	for j, c := range t.Columns {
		rec[j] = row[c].String()
	}
	return rec
}

// Concat stacks tables aligning columns by name. The result declares the union
// of all columns in order of first appearance and keeps rows in input order;
// a row from a table lacking a column reads Null there. Inputs are not modified.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	seen := make(map[string]bool)
	total := 0
	for _, t := range tables {
		if t == nil {
			continue
		}
		total += len(t.Rows)
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				out.Columns = append(out.Columns, c)
			}
		}
	}

	out.Rows = make([]Row, 0, total)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, r := range t.Rows {
			row := make(Row, len(t.Columns))
			for _, c := range t.Columns {
				if v, ok := r[c]; ok && !v.IsNull() {
					row[c] = v
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
