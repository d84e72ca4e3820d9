package wire

import "github.com/nullstate/ptable/internal/ptable"

// FromTable converts every row of a table into a TableSnapshot ready for
// Encode. It does not filter out deleted master slots; pass a pkeyed view
// for live rows only.
func FromTable(t *ptable.Table) TableSnapshot {
	names := t.Schema().Names()
	out := TableSnapshot{Columns: names, Rows: make([]RowSnapshot, t.NumRows())}
	for i := 0; i < t.NumRows(); i++ {
		cells := make([]CellValue, len(names))
		for j, name := range names {
			col := t.Column(name)
			s := col.Get(i)
			cv := CellValue{DType: uint8(col.DType), Valid: s.Valid}
			if s.Valid {
				switch {
				case col.DType == ptable.DTypeString:
					cv.Str = col.Vocabulary().String(s.Str)
				case col.DType.IsFloat():
					cv.F64 = s.F64
				default:
					cv.I64 = s.I64
				}
			}
			cells[j] = cv
		}
		out.Rows[i] = RowSnapshot{Cells: cells}
	}
	return out
}
