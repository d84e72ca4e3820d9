package ptable

import "fmt"

// ColumnDef names one column of a Schema.
type ColumnDef struct {
	Name  string
	DType DType
}

// Schema is an ordered list of column definitions.
type Schema struct {
	Columns []ColumnDef
}

// NewSchema builds a Schema from a variadic list of defs, preserving order.
func NewSchema(defs ...ColumnDef) Schema {
	return Schema{Columns: append([]ColumnDef(nil), defs...)}
}

// Names returns the schema's column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// DTypeOf returns the dtype of the named column and whether it was found.
func (s Schema) DTypeOf(name string) (DType, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c.DType, true
		}
	}
	return 0, false
}

// Equal reports whether two schemas declare the same columns, in the same
// order, with the same dtypes.
func (s Schema) Equal(o Schema) bool {
	if len(s.Columns) != len(o.Columns) {
		return false
	}
	for i := range s.Columns {
		if s.Columns[i] != o.Columns[i] {
			return false
		}
	}
	return true
}

// WithColumn returns a new Schema with an additional column appended.
func (s Schema) WithColumn(name string, d DType) Schema {
	return Schema{Columns: append(append([]ColumnDef(nil), s.Columns...), ColumnDef{name, d})}
}

// Retype returns a new Schema with the named column's dtype replaced. It
// returns an error wrapping ErrUnknownDType if name is not present.
func (s Schema) Retype(name string, d DType) (Schema, error) {
	out := Schema{Columns: append([]ColumnDef(nil), s.Columns...)}
	for i, c := range out.Columns {
		if c.Name == name {
			out.Columns[i].DType = d
			return out, nil
		}
	}
	return out, fmt.Errorf("retype %q: %w", name, ErrUnknownDType)
}

// uint8 transitional schema for flags/transitions columns: one Uint8 column
// per output column, matching the original's m_trans_schema construction.
func uint8SchemaFrom(output Schema) Schema {
	defs := make([]ColumnDef, len(output.Columns))
	for i, c := range output.Columns {
		defs[i] = ColumnDef{Name: c.Name, DType: DTypeUint8}
	}
	return Schema{Columns: defs}
}

// boolSchemaFrom builds a Bool schema with one column per output column,
// matching the original's m_diff_schema construction.
func boolSchemaFrom(output Schema) Schema {
	defs := make([]ColumnDef, len(output.Columns))
	for i, c := range output.Columns {
		defs[i] = ColumnDef{Name: c.Name, DType: DTypeBool}
	}
	return Schema{Columns: defs}
}
