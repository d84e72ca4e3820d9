// Package wire provides a borsh-encoded export of a table snapshot, for
// handing a point-in-time view of a table's rows across a process or
// language boundary — the same concern the original's numpy.cpp interop
// layer serves for the JS/Python side of Perspective, here serialized
// rather than shared via in-process buffers.
package wire

import (
	"fmt"

	"github.com/near/borsh-go"
)

// CellValue is the wire representation of one Scalar: a dtype tag plus
// whichever payload field is meaningful, mirroring ptable.Scalar's shape
// except that a string cell carries its text rather than a vocabulary id
// (see FromTable).
type CellValue struct {
	DType uint8
	Valid bool
	I64   int64
	F64   float64
	Str   string
}

// RowSnapshot is one row's cells, in column order.
type RowSnapshot struct {
	Cells []CellValue
}

// TableSnapshot is a full table export: column names in order, plus rows.
type TableSnapshot struct {
	Columns []string
	Rows    []RowSnapshot
}

// Encode serializes a TableSnapshot to its borsh wire format.
func Encode(s TableSnapshot) ([]byte, error) {
	b, err := borsh.Serialize(s)
	if err != nil {
		return nil, fmt.Errorf("wire: encode snapshot: %w", err)
	}
	return b, nil
}

// Decode parses a borsh-encoded TableSnapshot.
func Decode(b []byte) (TableSnapshot, error) {
	var s TableSnapshot
	if err := borsh.Deserialize(&s, b); err != nil {
		return TableSnapshot{}, fmt.Errorf("wire: decode snapshot: %w", err)
	}
	return s, nil
}
