package ptable

// Scalar is a tagged-union cell value. It is a comparable struct so it can be
// used directly as a Go map key for the primary-key index (MasterState),
// without a separate hashing step. Only the field matching DType is
// meaningful; the others are zero.
type Scalar struct {
	DType DType
	Valid bool
	I64   int64   // int8/16/32/64, uint8/16/32/64, bool, date, time
	F64   float64 // float32/64
	Str   uint32  // string: vocabulary id
}

// NullScalar returns an invalid (null) scalar of the given dtype.
func NullScalar(d DType) Scalar {
	return Scalar{DType: d, Valid: false}
}

func IntScalar(d DType, v int64) Scalar {
	return Scalar{DType: d, Valid: true, I64: v}
}

func FloatScalar(d DType, v float64) Scalar {
	return Scalar{DType: d, Valid: true, F64: v}
}

func BoolScalar(v bool) Scalar {
	var i int64
	if v {
		i = 1
	}
	return Scalar{DType: DTypeBool, Valid: true, I64: i}
}

func StringScalar(id uint32) Scalar {
	return Scalar{DType: DTypeString, Valid: true, Str: id}
}

// Equal reports whether two scalars of the same dtype carry the same value,
// including null == null. It does not compare across dtypes.
func (s Scalar) Equal(o Scalar) bool {
	if s.DType != o.DType {
		return false
	}
	if s.Valid != o.Valid {
		return false
	}
	if !s.Valid {
		return true
	}
	switch {
	case s.DType.IsFloat():
		return s.F64 == o.F64
	case s.DType == DTypeString:
		return s.Str == o.Str
	default:
		return s.I64 == o.I64
	}
}

// convertScalar converts a valid scalar of dtype `from` into one of dtype
// `to`, along the restricted promotion lattice of spec.md §6. toCol/fromCol
// are supplied so a numeric->string conversion can intern into the
// destination column's Vocabulary.
func convertScalar(s Scalar, from, to DType, toCol, fromCol *Column) Scalar {
	if from == to {
		return s
	}
	if to == DTypeString {
		var text string
		if from.IsFloat() {
			text = formatFloat(s.F64)
		} else if from == DTypeBool {
			text = formatBool(s.I64 != 0)
		} else {
			text = formatInt(s.I64)
		}
		return StringScalar(toCol.vocab.Intern(text))
	}
	if from.IsFloat() {
		return FloatScalar(to, s.F64)
	}
	if to.IsFloat() {
		return FloatScalar(to, float64(s.I64))
	}
	return IntScalar(to, s.I64)
}

// Negate returns the additive inverse of a numeric scalar. For unsigned
// dtypes this wraps via two's-complement, matching Go's defined integer
// overflow behavior — the deliberate resolution of the Open Question in
// spec.md §9 (suppressing the signed-overflow concern the original's
// SUPPRESS_WARNINGS_VC(4146) annotation names for MSVC).
func (s Scalar) Negate() Scalar {
	if s.DType.IsFloat() {
		return FloatScalar(s.DType, -s.F64)
	}
	return IntScalar(s.DType, -s.I64)
}
