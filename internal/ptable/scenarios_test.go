package ptable_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nullstate/ptable/internal/ptable"
)

// capturingContext records the TransitionalSet handed to Notify so tests can
// assert on the actual per-column Transition codes a ProcessBatch call
// produced, not just the ShouldNotify bool.
type capturingContext struct {
	sets []*ptable.TransitionalSet
}

func (c *capturingContext) Reset()      {}
func (c *capturingContext) StepBegin()  {}
func (c *capturingContext) StepEnd()    {}
func (c *capturingContext) HasDeltas() bool { return len(c.sets) > 0 }

func (c *capturingContext) Notify(set *ptable.TransitionalSet) error {
	c.sets = append(c.sets, set)
	return nil
}

func (c *capturingContext) last() *ptable.TransitionalSet {
	if len(c.sets) == 0 {
		return nil
	}
	return c.sets[len(c.sets)-1]
}

func newCapturingEngine(t *testing.T) (*ptable.Engine, *capturingContext) {
	t.Helper()
	e := newTestEngine(t)
	capCtx := &capturingContext{}
	require.NoError(t, e.RegisterContext(ptable.ContextHandle{
		Name:    "capture",
		Kind:    "test",
		Context: capCtx,
	}))
	return e, capCtx
}

func transitionAt(tbl *ptable.Table, col string, row int) ptable.Transition {
	return ptable.Transition(tbl.Column(col).Get(row).I64)
}

// S3: a partial update coalesces a null cell against master while a sibling
// column actually changes.
func TestScenarioPartialUpdateCoalescesAgainstMaster(t *testing.T) {
	t.Parallel()
	e, capCtx := newCapturingEngine(t)

	sendRow(t, e, 1, "alice", 10, ptable.OpInsert)
	notified, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.True(t, notified, "first load always notifies")

	// Update only score; leave name unset so it coalesces from master.
	b := ptable.NewTable(e.InputSchema(), 1)
	b.Column("id").Set(0, ptable.IntScalar(ptable.DTypeInt64, 1))
	b.Column(ptable.ColPKey).Set(0, ptable.IntScalar(ptable.DTypeInt64, 1))
	b.Column("score").Set(0, ptable.FloatScalar(ptable.DTypeFloat64, 99))
	b.Column(ptable.ColOp).Set(0, ptable.IntScalar(ptable.DTypeUint8, int64(ptable.OpInsert)))
	require.NoError(t, e.Send(b))

	notified, err = e.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.True(t, notified, "score changed, so the batch should notify")

	set := capCtx.last()
	require.NotNil(t, set)
	require.Equal(t, ptable.TransitionEqTT, transitionAt(set.Transitions, "name", 0),
		"name cell coalesced from master and is unchanged")
	require.Equal(t, ptable.TransitionNeqTT, transitionAt(set.Transitions, "score", 0),
		"score cell actually changed")

	live := e.GetPkeyedTable()
	nameCol := live.Column("name")
	v := nameCol.Get(0)
	require.True(t, v.Valid)
	require.Equal(t, "alice", nameCol.Vocabulary().String(v.Str))
	require.Equal(t, 99.0, live.Column("score").Get(0).F64)
}

// S4: a surviving delete of an existing key always reports NEQ_TDF,
// regardless of the deleted cell's prior validity.
func TestScenarioDeleteOfExistingRowReportsNeqTDF(t *testing.T) {
	t.Parallel()
	e, capCtx := newCapturingEngine(t)

	sendRow(t, e, 1, "alice", 10, ptable.OpInsert)
	_, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)

	sendRow(t, e, 1, "", 0, ptable.OpDelete)
	notified, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.True(t, notified)

	set := capCtx.last()
	require.NotNil(t, set)
	require.Equal(t, ptable.TransitionNeqTDF, transitionAt(set.Transitions, "name", 0))
	require.Equal(t, ptable.TransitionNeqTDF, transitionAt(set.Transitions, "score", 0))
	require.Equal(t, 0, e.MappingSize())
}

// S5: a delete of a key that never existed is dropped entirely: nothing
// survives the mask phase and the batch does not notify.
func TestScenarioDeleteOfNonexistentKeyIsDropped(t *testing.T) {
	t.Parallel()
	e, capCtx := newCapturingEngine(t)

	sendRow(t, e, 1, "alice", 10, ptable.OpInsert)
	_, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)

	sendRow(t, e, 404, "", 0, ptable.OpDelete)
	notified, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.False(t, notified, "deleting a key that was never present is a no-op")
	require.Equal(t, 1, e.MappingSize(), "the unrelated existing row is untouched")
	require.Len(t, capCtx.sets, 1, "no second Notify call for the dropped delete")
}

// S6: a delete followed by a reinsert of the same key within one batch
// survives as a single row and reports NEQ_TDT, never an ordinary EQ/NEQ
// update code, and master ends up holding the reinserted value.
func TestScenarioDeleteThenReinsertWithinOneBatch(t *testing.T) {
	t.Parallel()
	e, capCtx := newCapturingEngine(t)

	sendRow(t, e, 1, "alice", 10, ptable.OpInsert)
	_, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)

	b := ptable.NewTable(e.InputSchema(), 2)
	b.Column("id").Set(0, ptable.IntScalar(ptable.DTypeInt64, 1))
	b.Column(ptable.ColPKey).Set(0, ptable.IntScalar(ptable.DTypeInt64, 1))
	b.Column(ptable.ColOp).Set(0, ptable.IntScalar(ptable.DTypeUint8, int64(ptable.OpDelete)))

	b.Column("id").Set(1, ptable.IntScalar(ptable.DTypeInt64, 1))
	b.Column(ptable.ColPKey).Set(1, ptable.IntScalar(ptable.DTypeInt64, 1))
	nameID := b.Column("name").Vocabulary().Intern("alice-v2")
	b.Column("name").Set(1, ptable.StringScalar(nameID))
	b.Column("score").Set(1, ptable.FloatScalar(ptable.DTypeFloat64, 55))
	b.Column(ptable.ColOp).Set(1, ptable.IntScalar(ptable.DTypeUint8, int64(ptable.OpInsert)))

	require.NoError(t, e.Send(b))
	notified, err := e.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.True(t, notified)

	set := capCtx.last()
	require.NotNil(t, set)
	require.Equal(t, 1, set.Flattened.NumRows(), "delete and reinsert collapse into one surviving row")
	require.Equal(t, ptable.TransitionNeqTDT, transitionAt(set.Transitions, "name", 0))
	require.Equal(t, ptable.TransitionNeqTDT, transitionAt(set.Transitions, "score", 0))

	live := e.GetPkeyedTable()
	require.Equal(t, 1, live.NumRows())
	nameCol := live.Column("name")
	v := nameCol.Get(0)
	require.True(t, v.Valid)
	require.Equal(t, "alice-v2", nameCol.Vocabulary().String(v.Str))
	require.Equal(t, 55.0, live.Column("score").Get(0).F64)
}
