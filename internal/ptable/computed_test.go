package ptable_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nullstate/ptable/internal/ptable"
)

func TestComputedColumnBuiltinAdd(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	// First batch takes the first-load fast path, which establishes the
	// mapping without running computed columns; register and exercise
	// the computed column on the second batch, which takes the full
	// per-column processing path.
	sendRow(t, e, 1, "alice", 10, ptable.OpInsert)
	_, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)

	fn, outType, err := ptable.BuiltinComputation("add")
	require.NoError(t, err)
	e.RegisterComputedColumn(ptable.ComputedColumn{
		Name:       "double_score",
		OutputType: outType,
		Inputs:     []string{"score", "score"},
		Func:       fn,
	})

	sendRow(t, e, 1, "alice", 20, ptable.OpInsert)
	_, err = e.ProcessBatch(context.Background())
	require.NoError(t, err)

	master := e.GetTable()
	col := master.Column("double_score")
	require.NotNil(t, col)
	require.Equal(t, 40.0, col.Get(0).F64)
}

func TestComputedColumnInvalidFunctionIsLoggedNotFatal(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	e.RegisterComputedColumn(ptable.ComputedColumn{
		Name:       "broken",
		OutputType: ptable.DTypeFloat64,
		Inputs:     []string{"score"},
		Func: func(inputs []*ptable.Column, n int) (*ptable.Column, error) {
			return ptable.NewColumn("broken", ptable.DTypeFloat64, n+1), nil // wrong length
		},
	})

	// The first batch takes the first-load fast path, which does not run
	// computed columns; the second batch runs the broken function.
	sendRow(t, e, 1, "alice", 10, ptable.OpInsert)
	_, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)

	sendRow(t, e, 1, "alice", 20, ptable.OpInsert)
	notified, err := e.ProcessBatch(context.Background())
	require.NoError(t, err, "a broken computed column must not abort the batch")
	require.True(t, notified)
}
