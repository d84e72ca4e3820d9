package ptable

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

// RowLookup is a snapshot of where a pkey currently lives in the master
// table, computed once per batch before the per-column parallel region
// begins so every worker reads it without synchronization — mirroring the
// original's up-front row_lookup construction in _process_table.
type RowLookup struct {
	Slot   uint32
	Exists bool
}

// MasterState is the authoritative keyed table an Engine reconciles batches
// against: the master Table, the pkey->slot index, and a free-slot list for
// reuse on delete.
type MasterState struct {
	mu        sync.RWMutex
	schema    Schema
	table     *Table
	index     map[Scalar]uint32
	freeSlots []uint32

	sortedCache *ristretto.Cache
}

// NewMasterState returns an empty MasterState conforming to schema, which
// must contain the psp_pkey column.
func NewMasterState(schema Schema) (*MasterState, error) {
	if _, ok := schema.DTypeOf(ColPKey); !ok {
		return nil, fmt.Errorf("master state: schema missing %s column", ColPKey)
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 64,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("master state: new cache: %w", err)
	}
	return &MasterState{
		schema:      schema,
		table:       NewTable(schema, 0),
		index:       make(map[Scalar]uint32),
		sortedCache: cache,
	}, nil
}

// MappingSize reports the number of live (non-deleted) primary keys, i.e.
// t_gnode::mapping_size().
func (m *MasterState) MappingSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.index)
}

// Lookup resolves pkey to a RowLookup without mutating state.
func (m *MasterState) Lookup(pkey Scalar) RowLookup {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slot, ok := m.index[pkey]
	return RowLookup{Slot: slot, Exists: ok}
}

// snapshotLookups builds the batch-wide, point-in-time RowLookup slice used
// by the per-column parallel region; pkeys is the flattened batch's pkey
// column.
func (m *MasterState) snapshotLookups(pkeys *Column) []RowLookup {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RowLookup, pkeys.Len())
	for i := range out {
		k := pkeys.Get(i)
		slot, ok := m.index[k]
		out[i] = RowLookup{Slot: slot, Exists: ok}
	}
	return out
}

// reserveSlot returns a slot for a new pkey, reusing a freed slot (LIFO) if
// one is available, otherwise growing the table by one row.
func (m *MasterState) reserveSlot() uint32 {
	if n := len(m.freeSlots); n > 0 {
		slot := m.freeSlots[n-1]
		m.freeSlots = m.freeSlots[:n-1]
		return slot
	}
	slot := uint32(m.table.NumRows())
	m.table.SetSize(m.table.NumRows() + 1)
	return slot
}

// ApplyFlattened applies a flattened, masked batch to the master table:
// INSERT coalesces into the existing slot (or allocates one), DELETE frees
// the slot and removes the pkey from the index. lookups holds, per batch row,
// the pre-batch RowLookup the caller captured via snapshotLookups; it is
// read, not recomputed. Returns ErrUnknownOp for a row whose op is neither
// INSERT nor DELETE.
func (m *MasterState) ApplyFlattened(batch *Table, lookups []RowLookup, invalidateCache func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pkeyCol := batch.Column(ColPKey)
	opCol := batch.Column(ColOp)
	if pkeyCol == nil || opCol == nil {
		return fmt.Errorf("apply flattened: batch missing reserved columns")
	}

	for i := 0; i < batch.NumRows(); i++ {
		pkey := pkeyCol.Get(i)
		op := Op(opCol.Get(i).I64)
		lookup := lookups[i]

		switch op {
		case OpDelete:
			if lookup.Exists {
				delete(m.index, pkey)
				m.freeSlots = append(m.freeSlots, lookup.Slot)
			}
		case OpInsert:
			slot := lookup.Slot
			if !lookup.Exists {
				slot = m.reserveSlot()
				m.index[pkey] = slot
			}
			for _, def := range m.schema.Columns {
				src := batch.Column(def.Name)
				if src == nil {
					continue
				}
				dst := m.table.Column(def.Name)
				if src.Valid.Get(i) {
					dst.CopyFrom(int(slot), src, i)
				}
			}
		default:
			return ErrUnknownOp
		}
	}
	if invalidateCache != nil {
		invalidateCache()
	}
	return nil
}

// GetTable returns the full master table, dense slots included (deleted
// slots hold stale data and are not part of any live pkey).
func (m *MasterState) GetTable() *Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.table
}

// GetPkeyedTable returns a compacted clone of the master table containing
// only live rows, in slot order.
func (m *MasterState) GetPkeyedTable() *Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mask := NewBitset(m.table.NumRows())
	for _, slot := range m.index {
		mask.Set(int(slot))
	}
	return m.table.Clone(mask)
}

// GetSortedPkeyedTable returns a compacted clone of the master table
// containing only live rows, sorted ascending by primary key. Results are
// cached in a ristretto cache keyed by epoch so repeated reads between
// batches avoid re-sorting.
func (m *MasterState) GetSortedPkeyedTable(epoch uint64) *Table {
	cacheKey := fmt.Sprintf("sorted:%d", epoch)
	if v, ok := m.sortedCache.Get(cacheKey); ok {
		return v.(*Table)
	}

	m.mu.RLock()
	slots := make([]uint32, 0, len(m.index))
	for _, slot := range m.index {
		slots = append(slots, slot)
	}
	pkeyCol := m.table.Column(ColPKey)
	sort.Slice(slots, func(i, j int) bool {
		a, b := pkeyCol.Get(int(slots[i])), pkeyCol.Get(int(slots[j]))
		if pkeyCol.DType == DTypeString {
			return pkeyCol.vocab.String(a.Str) < pkeyCol.vocab.String(b.Str)
		}
		return lessScalar(a, b)
	})
	mask := NewBitset(m.table.NumRows())
	for _, s := range slots {
		// The mask marks the live slots; the output rows below are
		// copied one by one in sorted pkey order, not via Clone.
		mask.Set(int(s))
	}
	out := NewTable(m.schema, len(slots))
	for outIdx, slot := range slots {
		for _, def := range m.schema.Columns {
			out.Column(def.Name).CopyFrom(outIdx, m.table.Column(def.Name), int(slot))
		}
	}
	m.mu.RUnlock()

	m.sortedCache.SetWithTTL(cacheKey, out, 1, 5*time.Minute)
	m.sortedCache.Wait()
	return out
}

// invalidateSortedCache is passed by the engine as ApplyFlattened's
// invalidateCache callback, so it runs after every applied batch. It evicts
// every cached sorted view, whatever epoch it was stored under.
func (m *MasterState) invalidateSortedCache(ctx context.Context) {
	m.sortedCache.Clear()
}

func lessScalar(a, b Scalar) bool {
	if a.DType.IsFloat() {
		return a.F64 < b.F64
	}
	if a.DType == DTypeString {
		return a.Str < b.Str
	}
	return a.I64 < b.I64
}
