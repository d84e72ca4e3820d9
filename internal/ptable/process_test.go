package ptable_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nullstate/ptable/internal/ptable"
)

func newTestEngine(t *testing.T) *ptable.Engine {
	t.Helper()
	schema := ptable.NewSchema(
		ptable.ColumnDef{Name: "id", DType: ptable.DTypeInt64},
		ptable.ColumnDef{Name: "name", DType: ptable.DTypeString},
		ptable.ColumnDef{Name: "score", DType: ptable.DTypeFloat64},
	)
	e, err := ptable.NewEngine(schema, "id", ptable.DefaultEngineConfig(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, e.Init())
	return e
}

func sendRow(t *testing.T, e *ptable.Engine, pkey int64, name string, score float64, op ptable.Op) {
	t.Helper()
	b := ptable.NewTable(e.InputSchema(), 1)
	b.Column("id").Set(0, ptable.IntScalar(ptable.DTypeInt64, pkey))
	b.Column(ptable.ColPKey).Set(0, ptable.IntScalar(ptable.DTypeInt64, pkey))
	if name != "" {
		id := b.Column("name").Vocabulary().Intern(name)
		b.Column("name").Set(0, ptable.StringScalar(id))
	}
	if score != 0 {
		b.Column("score").Set(0, ptable.FloatScalar(ptable.DTypeFloat64, score))
	}
	b.Column(ptable.ColOp).Set(0, ptable.IntScalar(ptable.DTypeUint8, int64(op)))
	require.NoError(t, e.Send(b))
}

func TestEngineFirstLoadAlwaysNotifies(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	sendRow(t, e, 1, "alice", 10, ptable.OpInsert)

	notified, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.True(t, notified)
	require.Equal(t, 1, e.MappingSize())
}

func TestEngineInsertUpdateProducesDiff(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	sendRow(t, e, 1, "alice", 10, ptable.OpInsert)
	_, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)

	sendRow(t, e, 1, "alice", 20, ptable.OpInsert)
	notified, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.True(t, notified, "changing score should notify")
	require.Equal(t, 1, e.MappingSize())

	live := e.GetPkeyedTable()
	require.Equal(t, 1, live.NumRows())
	require.Equal(t, 20.0, live.Column("score").Get(0).F64)
}

func TestEngineNoChangeDoesNotNotify(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	sendRow(t, e, 1, "alice", 10, ptable.OpInsert)
	_, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)

	sendRow(t, e, 1, "alice", 10, ptable.OpInsert)
	notified, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.False(t, notified, "identical re-insert should not notify")
}

func TestEngineDeleteRemovesFromMapping(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	sendRow(t, e, 1, "alice", 10, ptable.OpInsert)
	_, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, e.MappingSize())

	sendRow(t, e, 1, "", 0, ptable.OpDelete)
	notified, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.True(t, notified)
	require.Equal(t, 0, e.MappingSize())
}

func TestEngineEmptyBatchIsNoop(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	notified, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.False(t, notified)
	require.Equal(t, 0, e.MappingSize())
}

func TestPoolProcessAllAdvancesEpoch(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	pool := ptable.NewPool(nil)
	pool.AddEngine("e1", e)

	require.NoError(t, pool.ProcessAll(context.Background()))
	require.Equal(t, uint64(0), pool.Epoch(), "no data remaining: ProcessAll is a no-op")

	sendRow(t, e, 1, "alice", 10, ptable.OpInsert)
	pool.MarkDataRemaining()
	require.NoError(t, pool.ProcessAll(context.Background()))
	require.Equal(t, uint64(1), pool.Epoch())
}
