package ptable

import (
	"fmt"
	"sync"
)

// InputPort is the single write-side buffer an Engine accumulates row
// batches into before a ProcessBatch call drains it. Concurrent Send calls
// append safely; ReleaseOrClear hands the accumulated table to the engine
// and resets the port to an empty table of the same schema for reuse,
// matching t_port::release_or_clear.
type InputPort struct {
	mu     sync.Mutex
	schema Schema
	table  *Table
}

// NewInputPort returns an InputPort accepting batches of the given schema.
func NewInputPort(schema Schema) *InputPort {
	return &InputPort{schema: schema, table: NewTable(schema, 0)}
}

// Send appends batch's rows to the port. It returns ErrSchemaMismatch if
// batch's schema does not exactly match the port's.
func (p *InputPort) Send(batch *Table) error {
	if !batch.Schema().Equal(p.schema) {
		return fmt.Errorf("input port: batch schema %v != port schema %v: %w",
			batch.Schema().Names(), p.schema.Names(), ErrSchemaMismatch)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	base := p.table.NumRows()
	p.table.SetSize(base + batch.NumRows())
	for _, def := range p.schema.Columns {
		dst := p.table.Column(def.Name)
		src := batch.Column(def.Name)
		for i := 0; i < batch.NumRows(); i++ {
			dst.CopyFrom(base+i, src, i)
		}
	}
	return nil
}

// ReleaseOrClear returns the accumulated table (possibly zero rows) and
// resets the port to a fresh empty table of the same schema.
func (p *InputPort) ReleaseOrClear() *Table {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.table
	p.table = NewTable(p.schema, 0)
	return t
}

// NumRows reports the number of rows currently buffered, without consuming
// them.
func (p *InputPort) NumRows() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table.NumRows()
}
