package ptable_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nullstate/ptable/internal/ptable"
)

func TestScalarEqualNullSemantics(t *testing.T) {
	t.Parallel()

	a := ptable.NullScalar(ptable.DTypeInt64)
	b := ptable.NullScalar(ptable.DTypeInt64)
	require.True(t, a.Equal(b), "null == null for same dtype")

	c := ptable.IntScalar(ptable.DTypeInt64, 5)
	require.False(t, a.Equal(c))
	require.False(t, c.Equal(a))

	d := ptable.IntScalar(ptable.DTypeInt64, 5)
	require.True(t, c.Equal(d))
}

func TestScalarEqualAcrossDTypeIsFalse(t *testing.T) {
	t.Parallel()
	a := ptable.IntScalar(ptable.DTypeInt32, 5)
	b := ptable.IntScalar(ptable.DTypeInt64, 5)
	require.False(t, a.Equal(b))
}

func TestScalarNegateUnsignedWraps(t *testing.T) {
	t.Parallel()
	// Two's-complement wraparound is the deliberate resolution recorded
	// in SPEC_FULL.md §9 for unsigned delta negation.
	s := ptable.IntScalar(ptable.DTypeUint8, 0)
	neg := s.Negate()
	require.Equal(t, ptable.DTypeUint8, neg.DType)
	require.Equal(t, int64(0), neg.I64)

	s2 := ptable.IntScalar(ptable.DTypeInt64, 1)
	neg2 := s2.Negate()
	require.Equal(t, int64(-1), neg2.I64)
}
