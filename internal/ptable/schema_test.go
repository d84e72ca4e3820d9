package ptable_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/nullstate/ptable/internal/ptable"
)

func TestSchemaWithColumnAppendsWithoutMutatingOriginal(t *testing.T) {
	t.Parallel()
	base := ptable.NewSchema(
		ptable.ColumnDef{Name: "id", DType: ptable.DTypeInt64},
		ptable.ColumnDef{Name: "name", DType: ptable.DTypeString},
	)

	extended := base.WithColumn("score", ptable.DTypeFloat64)

	want := ptable.NewSchema(
		ptable.ColumnDef{Name: "id", DType: ptable.DTypeInt64},
		ptable.ColumnDef{Name: "name", DType: ptable.DTypeString},
		ptable.ColumnDef{Name: "score", DType: ptable.DTypeFloat64},
	)
	if diff := cmp.Diff(want, extended); diff != "" {
		t.Fatalf("extended schema mismatch (-want +got):\n%s", diff)
	}

	unchanged := ptable.NewSchema(
		ptable.ColumnDef{Name: "id", DType: ptable.DTypeInt64},
		ptable.ColumnDef{Name: "name", DType: ptable.DTypeString},
	)
	require.Empty(t, cmp.Diff(unchanged, base), "WithColumn must not mutate the receiver")
}

func TestSchemaRetypeReplacesOnlyNamedColumn(t *testing.T) {
	t.Parallel()
	base := ptable.NewSchema(
		ptable.ColumnDef{Name: "id", DType: ptable.DTypeInt32},
		ptable.ColumnDef{Name: "value", DType: ptable.DTypeFloat32},
	)

	widened, err := base.Retype("id", ptable.DTypeInt64)
	require.NoError(t, err)

	want := ptable.NewSchema(
		ptable.ColumnDef{Name: "id", DType: ptable.DTypeInt64},
		ptable.ColumnDef{Name: "value", DType: ptable.DTypeFloat32},
	)
	if diff := cmp.Diff(want, widened); diff != "" {
		t.Fatalf("retyped schema mismatch (-want +got):\n%s", diff)
	}

	_, err = base.Retype("missing", ptable.DTypeInt64)
	require.ErrorIs(t, err, ptable.ErrUnknownDType)
}
