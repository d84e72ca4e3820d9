package ptable

import "fmt"

// Table is a named set of Columns sharing a row count, conforming to a
// Schema.
type Table struct {
	schema  Schema
	columns map[string]*Column
	size    int
}

// NewTable allocates a Table of n rows conforming to schema, all cells
// invalid.
func NewTable(schema Schema, n int) *Table {
	t := &Table{schema: schema, columns: make(map[string]*Column, len(schema.Columns)), size: n}
	for _, def := range schema.Columns {
		t.columns[def.Name] = NewColumn(def.Name, def.DType, n)
	}
	return t
}

func (t *Table) Schema() Schema { return t.schema }
func (t *Table) NumRows() int   { return t.size }

// Column returns the named column, or nil if absent.
func (t *Table) Column(name string) *Column { return t.columns[name] }

// HasColumn reports whether name is present.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// AddColumn appends a new column of length NumRows(), all cells invalid. It
// is idempotent: adding a column that already exists with the same dtype is
// a no-op.
func (t *Table) AddColumn(name string, d DType) *Column {
	if c, ok := t.columns[name]; ok {
		return c
	}
	c := NewColumn(name, d, t.size)
	t.columns[name] = c
	t.schema = t.schema.WithColumn(name, d)
	return c
}

// RemoveColumn drops a column from the table and its schema.
func (t *Table) RemoveColumn(name string) {
	delete(t.columns, name)
	cols := make([]ColumnDef, 0, len(t.schema.Columns))
	for _, c := range t.schema.Columns {
		if c.Name != name {
			cols = append(cols, c)
		}
	}
	t.schema.Columns = cols
}

// Reserve grows every column's backing storage to at least n rows without
// changing NumRows.
func (t *Table) Reserve(n int) {
	for _, c := range t.columns {
		c.Reserve(n)
	}
}

// SetSize reserves storage for, and sets, the table's row count.
func (t *Table) SetSize(n int) {
	t.Reserve(n)
	t.size = n
}

// Clear resets the table to zero rows, keeping schema and column allocations
// (vocabularies included) for reuse — matching t_port::release_or_clear's
// reuse of the existing table shell rather than reallocating.
func (t *Table) Clear() {
	t.size = 0
	for _, c := range t.columns {
		c.Valid = NewBitset(0)
	}
}

// Clone returns a deep copy of t. If mask is non-nil, only rows with a set
// bit are retained, compacted in index order (the "existed mask" use in
// Engine.ProcessBatch and MasterState.GetPkeyedTable).
func (t *Table) Clone(mask *Bitset) *Table {
	if mask == nil {
		nt := &Table{schema: t.schema, columns: make(map[string]*Column, len(t.columns)), size: t.size}
		for name, c := range t.columns {
			nt.columns[name] = c.Clone()
		}
		return nt
	}
	n := mask.Count()
	nt := NewTable(t.schema, n)
	out := 0
	for i := 0; i < t.size; i++ {
		if !mask.Get(i) {
			continue
		}
		for name, c := range t.columns {
			nt.columns[name].CopyFrom(out, c, i)
		}
		out++
	}
	return nt
}

// Retype replaces an existing column with a new one of dtype d, sized to the
// table's current row count, converting every valid value with
// convertScalar; invalid cells stay invalid. Used by Engine.PromoteColumn,
// which checks the promotion lattice before calling it.
func (t *Table) Retype(name string, d DType) error {
	old, ok := t.columns[name]
	if !ok {
		return fmt.Errorf("retype %q: %w", name, ErrUnknownDType)
	}
	nc := NewColumn(name, d, t.size)
	for i := 0; i < t.size; i++ {
		s := old.Get(i)
		if s.Valid {
			s = convertScalar(s, old.DType, d, nc, old)
		}
		nc.Set(i, s)
	}
	t.columns[name] = nc
	s, err := t.schema.Retype(name, d)
	if err != nil {
		return err
	}
	t.schema = s
	return nil
}
