package ptable_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nullstate/ptable/internal/ptable"
)

func batchSchema() ptable.Schema {
	return ptable.NewSchema(
		ptable.ColumnDef{Name: ptable.ColPKey, DType: ptable.DTypeInt64},
		ptable.ColumnDef{Name: "name", DType: ptable.DTypeString},
		ptable.ColumnDef{Name: "value", DType: ptable.DTypeFloat64},
		ptable.ColumnDef{Name: ptable.ColOp, DType: ptable.DTypeUint8},
	)
}

func setRow(t *ptable.Table, row int, pkey int64, name string, hasName bool, value float64, hasValue bool, op ptable.Op) {
	t.Column(ptable.ColPKey).Set(row, ptable.IntScalar(ptable.DTypeInt64, pkey))
	if hasName {
		id := t.Column("name").Vocabulary().Intern(name)
		t.Column("name").Set(row, ptable.StringScalar(id))
	}
	if hasValue {
		t.Column("value").Set(row, ptable.FloatScalar(ptable.DTypeFloat64, value))
	}
	t.Column(ptable.ColOp).Set(row, ptable.IntScalar(ptable.DTypeUint8, int64(op)))
}

func TestFlattenLastOpWinsWithNullCoalescing(t *testing.T) {
	t.Parallel()
	schema := batchSchema()
	batch := ptable.NewTable(schema, 2)
	setRow(batch, 0, 1, "alice", true, 1.0, true, ptable.OpInsert)
	setRow(batch, 1, 1, "", false, 2.0, true, ptable.OpInsert) // same pkey, no name -> coalesce from row 0

	out, _, err := ptable.Flatten(batch, schema)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())

	nameCol := out.Column("name")
	v := nameCol.Get(0)
	require.True(t, v.Valid)
	require.Equal(t, "alice", nameCol.Vocabulary().String(v.Str))

	valCol := out.Column("value")
	require.Equal(t, 2.0, valCol.Get(0).F64)
}

func TestFlattenDeleteWinsIfFinal(t *testing.T) {
	t.Parallel()
	schema := batchSchema()
	batch := ptable.NewTable(schema, 2)
	setRow(batch, 0, 1, "alice", true, 1.0, true, ptable.OpInsert)
	setRow(batch, 1, 1, "", false, 0, false, ptable.OpDelete)

	out, _, err := ptable.Flatten(batch, schema)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
	require.Equal(t, ptable.OpDelete, ptable.Op(out.Column(ptable.ColOp).Get(0).I64))
}

func TestFlattenTracksReinsertAfterDelete(t *testing.T) {
	t.Parallel()
	schema := batchSchema()
	batch := ptable.NewTable(schema, 3)
	setRow(batch, 0, 1, "alice", true, 1.0, true, ptable.OpDelete)
	setRow(batch, 1, 1, "alice", true, 10.0, true, ptable.OpInsert)
	setRow(batch, 2, 2, "bob", true, 2.0, true, ptable.OpInsert)

	out, reinserted, err := ptable.Flatten(batch, schema)
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())
	require.Equal(t, []bool{true, false}, reinserted, "key 1 saw a delete before its surviving insert; key 2 never saw a delete")
	require.Equal(t, ptable.OpInsert, ptable.Op(out.Column(ptable.ColOp).Get(0).I64))
}

func TestFlattenOrdersByFirstAppearance(t *testing.T) {
	t.Parallel()
	schema := batchSchema()
	batch := ptable.NewTable(schema, 3)
	setRow(batch, 0, 2, "b", true, 1, true, ptable.OpInsert)
	setRow(batch, 1, 1, "a", true, 1, true, ptable.OpInsert)
	setRow(batch, 2, 2, "b2", true, 2, true, ptable.OpInsert)

	out, _, err := ptable.Flatten(batch, schema)
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())
	require.Equal(t, int64(2), out.Column(ptable.ColPKey).Get(0).I64)
	require.Equal(t, int64(1), out.Column(ptable.ColPKey).Get(1).I64)
}
