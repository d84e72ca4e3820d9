// Package ptable implements an in-memory, incremental update engine over a
// keyed columnar table: ingestion of primary-keyed row batches, reconciliation
// against a master table, per-cell transition computation, computed columns,
// and notification of registered contexts.
package ptable

// DType identifies the concrete storage representation of a column.
type DType uint8

const (
	DTypeInt8 DType = iota
	DTypeInt16
	DTypeInt32
	DTypeInt64
	DTypeUint8
	DTypeUint16
	DTypeUint32
	DTypeUint64
	DTypeFloat32
	DTypeFloat64
	DTypeBool
	DTypeDate
	DTypeTime
	DTypeString
)

func (d DType) String() string {
	switch d {
	case DTypeInt8:
		return "int8"
	case DTypeInt16:
		return "int16"
	case DTypeInt32:
		return "int32"
	case DTypeInt64:
		return "int64"
	case DTypeUint8:
		return "uint8"
	case DTypeUint16:
		return "uint16"
	case DTypeUint32:
		return "uint32"
	case DTypeUint64:
		return "uint64"
	case DTypeFloat32:
		return "float32"
	case DTypeFloat64:
		return "float64"
	case DTypeBool:
		return "bool"
	case DTypeDate:
		return "date"
	case DTypeTime:
		return "time"
	case DTypeString:
		return "string"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether d participates in the generic numeric per-column
// processing path (processColumnNumeric), including bool/date/time which are
// stored as ordinary integers under the hood.
func (d DType) IsNumeric() bool {
	return d != DTypeString
}

func (d DType) IsInteger() bool {
	switch d {
	case DTypeInt8, DTypeInt16, DTypeInt32, DTypeInt64,
		DTypeUint8, DTypeUint16, DTypeUint32, DTypeUint64,
		DTypeBool, DTypeDate, DTypeTime:
		return true
	}
	return false
}

func (d DType) IsUnsigned() bool {
	switch d {
	case DTypeUint8, DTypeUint16, DTypeUint32, DTypeUint64, DTypeBool, DTypeDate:
		return true
	}
	return false
}

func (d DType) IsFloat() bool {
	return d == DTypeFloat32 || d == DTypeFloat64
}

// promotionRank orders dtypes along the restricted promotion lattice of
// spec.md §6: narrower integers may widen, integers may become floats, and
// anything may fall back to string. isPromotionAllowed accepts any target of
// non-decreasing rank (so signed/unsigned, bool, date and time move freely
// within and up the integer ranks), rejects float to non-float, and always
// accepts string.
func (d DType) promotionRank() int {
	switch d {
	case DTypeInt8, DTypeUint8, DTypeBool:
		return 0
	case DTypeInt16, DTypeUint16:
		return 1
	case DTypeInt32, DTypeUint32, DTypeDate:
		return 2
	case DTypeInt64, DTypeUint64, DTypeTime:
		return 3
	case DTypeFloat32:
		return 4
	case DTypeFloat64:
		return 5
	case DTypeString:
		return 6
	}
	return -1
}
