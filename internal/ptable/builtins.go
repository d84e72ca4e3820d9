package ptable

import "fmt"

// BuiltinComputation resolves a small library of named computed-column
// functions by id, so callers can register a computed column without
// writing a closure — supplementing the original's function-id-addressable
// computed columns (selected by name across its JS-facing API) that the
// distilled spec otherwise requires callers to hand-write from scratch.
func BuiltinComputation(id string) (ComputeFunc, DType, error) {
	switch id {
	case "add":
		return func(inputs []*Column, n int) (*Column, error) {
			if len(inputs) != 2 {
				return nil, fmt.Errorf("add: want 2 inputs, got %d", len(inputs))
			}
			out := NewColumn("", DTypeFloat64, n)
			for i := 0; i < n; i++ {
				a, b := inputs[0].Get(i), inputs[1].Get(i)
				if !a.Valid || !b.Valid {
					continue
				}
				out.Set(i, FloatScalar(DTypeFloat64, numericOf(a)+numericOf(b)))
			}
			return out, nil
		}, DTypeFloat64, nil

	case "sub":
		return func(inputs []*Column, n int) (*Column, error) {
			if len(inputs) != 2 {
				return nil, fmt.Errorf("sub: want 2 inputs, got %d", len(inputs))
			}
			out := NewColumn("", DTypeFloat64, n)
			for i := 0; i < n; i++ {
				a, b := inputs[0].Get(i), inputs[1].Get(i)
				if !a.Valid || !b.Valid {
					continue
				}
				out.Set(i, FloatScalar(DTypeFloat64, numericOf(a)-numericOf(b)))
			}
			return out, nil
		}, DTypeFloat64, nil

	case "concat":
		return func(inputs []*Column, n int) (*Column, error) {
			out := NewColumn("", DTypeString, n)
			for i := 0; i < n; i++ {
				s := ""
				valid := false
				for _, in := range inputs {
					v := in.Get(i)
					if !v.Valid {
						continue
					}
					valid = true
					if in.DType == DTypeString {
						s += in.vocab.String(v.Str)
					} else {
						s += formatScalarText(v)
					}
				}
				if valid {
					out.Set(i, StringScalar(out.vocab.Intern(s)))
				}
			}
			return out, nil
		}, DTypeString, nil

	case "upper":
		return func(inputs []*Column, n int) (*Column, error) {
			if len(inputs) != 1 || inputs[0].DType != DTypeString {
				return nil, fmt.Errorf("upper: want 1 string input")
			}
			out := NewColumn("", DTypeString, n)
			for i := 0; i < n; i++ {
				v := inputs[0].Get(i)
				if !v.Valid {
					continue
				}
				out.Set(i, StringScalar(out.vocab.Intern(toUpper(inputs[0].vocab.String(v.Str)))))
			}
			return out, nil
		}, DTypeString, nil

	case "is_null":
		return func(inputs []*Column, n int) (*Column, error) {
			if len(inputs) != 1 {
				return nil, fmt.Errorf("is_null: want 1 input")
			}
			out := NewColumn("", DTypeBool, n)
			for i := 0; i < n; i++ {
				out.Set(i, BoolScalar(!inputs[0].Valid.Get(i)))
			}
			return out, nil
		}, DTypeBool, nil
	}
	return nil, 0, fmt.Errorf("builtin computation %q: %w", id, ErrInvalidComputedFunction)
}

func numericOf(s Scalar) float64 {
	if s.DType.IsFloat() {
		return s.F64
	}
	return float64(s.I64)
}

func formatScalarText(s Scalar) string {
	if s.DType.IsFloat() {
		return formatFloat(s.F64)
	}
	if s.DType == DTypeBool {
		return formatBool(s.I64 != 0)
	}
	return formatInt(s.I64)
}

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}
