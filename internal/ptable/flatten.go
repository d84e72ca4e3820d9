package ptable

// Flatten performs intra-batch deduplication on pkey: for rows sharing a
// pkey, later operations win, nulls in a later INSERT are coalesced from
// earlier valid cells for the same pkey, and a DELETE wins if it is the
// final operation seen for that pkey. Output rows are ordered by first
// appearance of their pkey in the batch — matching t_gnode's flatten step
// ahead of _process_table's mask phase.
//
// The second return value is, per output row, whether a DELETE for that
// row's pkey occurred earlier in the batch and was followed by a surviving
// INSERT — the "reinsert after delete" bit the transition calculator's
// clause 9 (spec.md §4.5) needs. It is meaningless for rows whose final op
// is DELETE, since those never reach calcTransition.
func Flatten(batch *Table, schema Schema) (*Table, []bool, error) {
	pkeyCol := batch.Column(ColPKey)
	opCol := batch.Column(ColOp)
	if pkeyCol == nil || opCol == nil {
		return nil, nil, ErrSchemaMismatch
	}

	order := make([]Scalar, 0, batch.NumRows())
	rowOf := make(map[Scalar]int, batch.NumRows())
	hadDelete := make([]bool, 0, batch.NumRows())

	out := NewTable(schema, 0)
	outSize := 0

	for i := 0; i < batch.NumRows(); i++ {
		pkey := pkeyCol.Get(i)
		op := Op(opCol.Get(i).I64)

		if existingRow, ok := rowOf[pkey]; ok {
			if op == OpDelete {
				hadDelete[existingRow] = true
			}
			mergeRowInto(out, existingRow, batch, i, op, schema)
			continue
		}

		rowOf[pkey] = outSize
		order = append(order, pkey)
		out.SetSize(outSize + 1)
		copyRow(out, outSize, batch, i, schema)
		hadDelete = append(hadDelete, op == OpDelete)
		outSize++
	}

	opColOut := out.Column(ColOp)
	reinsertedAfterDelete := make([]bool, outSize)
	for i := 0; i < outSize; i++ {
		reinsertedAfterDelete[i] = hadDelete[i] && Op(opColOut.Get(i).I64) == OpInsert
	}

	return out, reinsertedAfterDelete, nil
}

// mergeRowInto folds batch row src into out row dst under last-op-wins with
// null-coalescing semantics: a later INSERT's null cells keep the earlier
// valid value; a later DELETE always wins outright; a later INSERT after an
// earlier DELETE resurrects the row as an INSERT.
func mergeRowInto(out *Table, dst int, batch *Table, src int, op Op, schema Schema) {
	opCol := out.Column(ColOp)
	switch op {
	case OpDelete:
		opCol.Set(dst, IntScalar(DTypeUint8, int64(OpDelete)))
		for _, def := range schema.Columns {
			if def.Name == ColOp {
				continue
			}
			out.Column(def.Name).CopyFrom(dst, batch.Column(def.Name), src)
		}
	case OpInsert:
		opCol.Set(dst, IntScalar(DTypeUint8, int64(OpInsert)))
		for _, def := range schema.Columns {
			if def.Name == ColOp || def.Name == ColPKey {
				continue
			}
			srcCol := batch.Column(def.Name)
			if srcCol.Valid.Get(src) {
				out.Column(def.Name).CopyFrom(dst, srcCol, src)
			}
			// else: keep whatever value dst already carries
			// (null-coalescing from the earlier row).
		}
	}
}

func copyRow(out *Table, dst int, batch *Table, src int, schema Schema) {
	for _, def := range schema.Columns {
		out.Column(def.Name).CopyFrom(dst, batch.Column(def.Name), src)
	}
}
