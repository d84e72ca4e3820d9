package ptable

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Pprint writes a human-readable rendering of every row of t to w, in the
// teacher's tablewriter-based CLI style.
func Pprint(w io.Writer, t *Table) {
	table := tablewriter.NewWriter(w)
	header := t.Schema().Names()
	table.SetHeader(header)
	for i := 0; i < t.NumRows(); i++ {
		row := make([]string, len(header))
		for j, name := range header {
			row[j] = cellText(t.Column(name), i)
		}
		table.Append(row)
	}
	table.Render()
}

// Repr returns a short single-line summary of t, suitable for log lines.
func Repr(t *Table) string {
	return fmt.Sprintf("Table{rows=%d, cols=%v}", t.NumRows(), t.Schema().Names())
}

func cellText(c *Column, i int) string {
	s := c.Get(i)
	if !s.Valid {
		return "null"
	}
	switch c.DType {
	case DTypeString:
		return c.vocab.String(s.Str)
	case DTypeFloat32, DTypeFloat64:
		return strconv.FormatFloat(s.F64, 'g', -1, 64)
	case DTypeBool:
		return strconv.FormatBool(s.I64 != 0)
	default:
		return strconv.FormatInt(s.I64, 10)
	}
}
