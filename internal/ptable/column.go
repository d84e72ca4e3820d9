package ptable

// Column is dtype-specialized storage: exactly one of the typed slices below
// is populated, selected by DType, alongside a dense validity Bitset. This
// keeps per-column processing (process.go) free of reflection and boxing,
// the same way the teacher's columnar drivers (ClickHouse/DuckDB column
// batches) keep one native slice per wire type rather than a slice of
// interfaces — see DESIGN.md.
type Column struct {
	Name  string
	DType DType

	Valid *Bitset

	i8  []int8
	i16 []int16
	i32 []int32
	i64 []int64
	u8  []uint8
	u16 []uint16
	u32 []uint32
	u64 []uint64
	f32 []float32
	f64 []float64
	b   []uint8  // bool, stored as 0/1
	dt  []int32  // date, packed Y/M/D
	tm  []int64  // time, ms since epoch
	str []uint32 // string, vocabulary ids

	vocab *Vocabulary // only for DTypeString
}

// NewColumn allocates a Column of the given dtype and length, all cells
// invalid.
func NewColumn(name string, d DType, n int) *Column {
	c := &Column{Name: name, DType: d, Valid: NewBitset(n)}
	switch d {
	case DTypeInt8:
		c.i8 = make([]int8, n)
	case DTypeInt16:
		c.i16 = make([]int16, n)
	case DTypeInt32:
		c.i32 = make([]int32, n)
	case DTypeInt64:
		c.i64 = make([]int64, n)
	case DTypeUint8:
		c.u8 = make([]uint8, n)
	case DTypeUint16:
		c.u16 = make([]uint16, n)
	case DTypeUint32:
		c.u32 = make([]uint32, n)
	case DTypeUint64:
		c.u64 = make([]uint64, n)
	case DTypeFloat32:
		c.f32 = make([]float32, n)
	case DTypeFloat64:
		c.f64 = make([]float64, n)
	case DTypeBool:
		c.b = make([]uint8, n)
	case DTypeDate:
		c.dt = make([]int32, n)
	case DTypeTime:
		c.tm = make([]int64, n)
	case DTypeString:
		c.str = make([]uint32, n)
		c.vocab = NewVocabulary()
	}
	return c
}

// Len returns the column's row count.
func (c *Column) Len() int { return c.Valid.Len() }

// BorrowVocabulary points this string column at another column's vocabulary
// instead of its own, avoiding re-interning when building a "previous value"
// transitional column that only ever re-emits strings already present in the
// master table's vocabulary.
func (c *Column) BorrowVocabulary(v *Vocabulary) {
	c.vocab = v
}

func (c *Column) Vocabulary() *Vocabulary { return c.vocab }

// Get returns the scalar at row i.
func (c *Column) Get(i int) Scalar {
	if !c.Valid.Get(i) {
		return NullScalar(c.DType)
	}
	switch c.DType {
	case DTypeInt8:
		return IntScalar(c.DType, int64(c.i8[i]))
	case DTypeInt16:
		return IntScalar(c.DType, int64(c.i16[i]))
	case DTypeInt32:
		return IntScalar(c.DType, int64(c.i32[i]))
	case DTypeInt64:
		return IntScalar(c.DType, c.i64[i])
	case DTypeUint8:
		return IntScalar(c.DType, int64(c.u8[i]))
	case DTypeUint16:
		return IntScalar(c.DType, int64(c.u16[i]))
	case DTypeUint32:
		return IntScalar(c.DType, int64(c.u32[i]))
	case DTypeUint64:
		return IntScalar(c.DType, int64(c.u64[i]))
	case DTypeFloat32:
		return FloatScalar(c.DType, float64(c.f32[i]))
	case DTypeFloat64:
		return FloatScalar(c.DType, c.f64[i])
	case DTypeBool:
		return BoolScalar(c.b[i] != 0)
	case DTypeDate:
		return IntScalar(c.DType, int64(c.dt[i]))
	case DTypeTime:
		return IntScalar(c.DType, c.tm[i])
	case DTypeString:
		return StringScalar(c.str[i])
	}
	return NullScalar(c.DType)
}

// Set writes a scalar at row i, marking it valid. Set of a null scalar
// instead clears validity.
func (c *Column) Set(i int, s Scalar) {
	if !s.Valid {
		c.Valid.Clear(i)
		return
	}
	c.Valid.Set(i)
	switch c.DType {
	case DTypeInt8:
		c.i8[i] = int8(s.I64)
	case DTypeInt16:
		c.i16[i] = int16(s.I64)
	case DTypeInt32:
		c.i32[i] = int32(s.I64)
	case DTypeInt64:
		c.i64[i] = s.I64
	case DTypeUint8:
		c.u8[i] = uint8(s.I64)
	case DTypeUint16:
		c.u16[i] = uint16(s.I64)
	case DTypeUint32:
		c.u32[i] = uint32(s.I64)
	case DTypeUint64:
		c.u64[i] = uint64(s.I64)
	case DTypeFloat32:
		c.f32[i] = float32(s.F64)
	case DTypeFloat64:
		c.f64[i] = s.F64
	case DTypeBool:
		if s.I64 != 0 {
			c.b[i] = 1
		} else {
			c.b[i] = 0
		}
	case DTypeDate:
		c.dt[i] = int32(s.I64)
	case DTypeTime:
		c.tm[i] = s.I64
	case DTypeString:
		c.str[i] = s.Str
	}
}

// CopyRow copies row src of c into row dst of c, including validity.
func (c *Column) CopyRow(dst int, src int) {
	c.Set(dst, c.Get(src))
}

// CopyFrom copies row srcRow of src (a column of the same dtype) into row
// dstRow of c.
func (c *Column) CopyFrom(dstRow int, src *Column, srcRow int) {
	if !src.Valid.Get(srcRow) {
		c.Valid.Clear(dstRow)
		return
	}
	s := src.Get(srcRow)
	if c.DType == DTypeString && src.vocab != c.vocab && src.vocab != nil && c.vocab != nil {
		s.Str = c.vocab.Intern(src.vocab.String(s.Str))
	}
	c.Set(dstRow, s)
}

// Reserve grows the column's backing storage to n rows, without changing
// reported Len beyond what Valid.Grow implies; callers call SetSize
// separately at the Table level.
func (c *Column) Reserve(n int) {
	if n <= c.Len() {
		return
	}
	switch c.DType {
	case DTypeInt8:
		c.i8 = growI8(c.i8, n)
	case DTypeInt16:
		c.i16 = growI16(c.i16, n)
	case DTypeInt32:
		c.i32 = growI32(c.i32, n)
	case DTypeInt64:
		c.i64 = growI64(c.i64, n)
	case DTypeUint8:
		c.u8 = growU8(c.u8, n)
	case DTypeUint16:
		c.u16 = growU16(c.u16, n)
	case DTypeUint32:
		c.u32 = growU32(c.u32, n)
	case DTypeUint64:
		c.u64 = growU64(c.u64, n)
	case DTypeFloat32:
		c.f32 = growF32(c.f32, n)
	case DTypeFloat64:
		c.f64 = growF64(c.f64, n)
	case DTypeBool:
		c.b = growU8(c.b, n)
	case DTypeDate:
		c.dt = growI32(c.dt, n)
	case DTypeTime:
		c.tm = growI64(c.tm, n)
	case DTypeString:
		c.str = growU32(c.str, n)
	}
	c.Valid.Grow(n)
}

func growI8(s []int8, n int) []int8 {
	if n <= len(s) {
		return s
	}
	ns := make([]int8, n)
	copy(ns, s)
	return ns
}
func growI16(s []int16, n int) []int16 {
	if n <= len(s) {
		return s
	}
	ns := make([]int16, n)
	copy(ns, s)
	return ns
}
func growI32(s []int32, n int) []int32 {
	if n <= len(s) {
		return s
	}
	ns := make([]int32, n)
	copy(ns, s)
	return ns
}
func growI64(s []int64, n int) []int64 {
	if n <= len(s) {
		return s
	}
	ns := make([]int64, n)
	copy(ns, s)
	return ns
}
func growU8(s []uint8, n int) []uint8 {
	if n <= len(s) {
		return s
	}
	ns := make([]uint8, n)
	copy(ns, s)
	return ns
}
func growU16(s []uint16, n int) []uint16 {
	if n <= len(s) {
		return s
	}
	ns := make([]uint16, n)
	copy(ns, s)
	return ns
}
func growU32(s []uint32, n int) []uint32 {
	if n <= len(s) {
		return s
	}
	ns := make([]uint32, n)
	copy(ns, s)
	return ns
}
func growU64(s []uint64, n int) []uint64 {
	if n <= len(s) {
		return s
	}
	ns := make([]uint64, n)
	copy(ns, s)
	return ns
}
func growF32(s []float32, n int) []float32 {
	if n <= len(s) {
		return s
	}
	ns := make([]float32, n)
	copy(ns, s)
	return ns
}
func growF64(s []float64, n int) []float64 {
	if n <= len(s) {
		return s
	}
	ns := make([]float64, n)
	copy(ns, s)
	return ns
}

// Clone returns a deep copy of c.
func (c *Column) Clone() *Column {
	nc := &Column{Name: c.Name, DType: c.DType, Valid: c.Valid.Clone(), vocab: c.vocab}
	nc.i8 = append([]int8(nil), c.i8...)
	nc.i16 = append([]int16(nil), c.i16...)
	nc.i32 = append([]int32(nil), c.i32...)
	nc.i64 = append([]int64(nil), c.i64...)
	nc.u8 = append([]uint8(nil), c.u8...)
	nc.u16 = append([]uint16(nil), c.u16...)
	nc.u32 = append([]uint32(nil), c.u32...)
	nc.u64 = append([]uint64(nil), c.u64...)
	nc.f32 = append([]float32(nil), c.f32...)
	nc.f64 = append([]float64(nil), c.f64...)
	nc.b = append([]uint8(nil), c.b...)
	nc.dt = append([]int32(nil), c.dt...)
	nc.tm = append([]int64(nil), c.tm...)
	nc.str = append([]uint32(nil), c.str...)
	return nc
}
