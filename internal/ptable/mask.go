package ptable

// maskResult carries the outputs of the mask phase (spec.md §4.4): which
// rows of the flattened batch survive into processing, the reinsert-after-
// delete bit each surviving INSERT needs for transition clause 9, and the
// existed table (a single Bool column recording, per flattened row,
// whether the pkey already existed in the master before this batch).
type maskResult struct {
	addedOffset           []uint32 // per-row count of rows added to master strictly before this one, within this batch
	reinsertedAfterDelete []bool   // per flattened row: a DELETE for this pkey preceded this surviving INSERT, within this batch
	existedMask           *Bitset  // bit i set iff flattened row i survives (is not a delete-of-nonexistent)
	existed               *Table   // single Bool column "psp_existed", one row per flattened row
}

// maskExistedRows computes the mask phase for a flattened batch, given the
// pre-batch RowLookup snapshot for each flattened row's pkey and Flatten's
// per-row reinsertedAfterDelete bits.
func maskExistedRows(flattened *Table, lookups []RowLookup, reinsertedAfterDelete []bool) *maskResult {
	n := flattened.NumRows()
	opCol := flattened.Column(ColOp)

	res := &maskResult{
		addedOffset:           make([]uint32, n),
		reinsertedAfterDelete: reinsertedAfterDelete,
		existedMask:           NewBitset(n),
		existed:               NewTable(NewSchema(ColumnDef{ColExisted, DTypeBool}), n),
	}

	added := uint32(0)

	for i := 0; i < n; i++ {
		op := Op(opCol.Get(i).I64)
		lookup := lookups[i]

		res.addedOffset[i] = added
		res.existed.Column(ColExisted).Set(i, BoolScalar(lookup.Exists))

		switch op {
		case OpDelete:
			// A delete of a pkey that never existed (and was not
			// itself inserted earlier in this same batch, which
			// Flatten would already have coalesced) contributes
			// nothing: mask bit left clear.
			if lookup.Exists {
				res.existedMask.Set(i)
			}
		case OpInsert:
			res.existedMask.Set(i)
			if !lookup.Exists {
				added++
			}
		}
	}

	return res
}
