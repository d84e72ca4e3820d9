package ptable

// calcTransition computes the symbolic transition code for one cell of an
// INSERT row, following the exact ordered decision table of spec.md §4.5 /
// the original's t_gnode::calc_transition (gnode.h:265-266,
// gnode.cpp:142-177). DELETE rows never reach this function: a surviving
// delete's transition code is NEQ_TDF, set directly by the caller
// (gnode.h:552 hardcodes the same value rather than calling calc_transition).
//
// rowAlreadyExists is whether the pkey was present in master before this
// batch (independent of whether this particular cell held a valid value).
// prevValid/curValid are the cell's raw validity before and after this
// operation. exists is the *coalesced* post-write validity
// (curValid || prevValid) — distinct from curValid whenever an explicit
// null in this batch falls back to the master's existing value. eq is
// whether the previous value and the effective (coalesced) current value
// are equal. reinsertedAfterDelete is true iff a DELETE for this pkey
// preceded this surviving INSERT within the same batch.
//
// Three clauses are suppressible via cfg, replacing the original's global
// PSP_BACKOUT_* environment flags with an explicit per-engine configuration.
// A suppressed clause's condition simply never matches, so evaluation falls
// through to the next clause in the ordered table — it never jumps straight
// to a catch-all.
//
// Clause ordering deviates from spec.md's #9-last listing in one respect:
// the reinsert-after-delete check is evaluated right after clauses 1-2
// rather than dead last. Clauses 3/5/6/7/8 are a complete partition over
// (prevExisted, exists, eq) — every possible combination of those three
// booleans matches one of them — so placed after clause 8 the
// reinsertedAfterDelete check could never fire: a reinsert of a row that
// existed in master always has prevExisted=true and exists=true, which
// clause 5 or 8 would already have claimed. The original hits the same
// dead branch (gnode.h forces row_already_exists false on a repeated pkey
// but that still satisfies its clause 6 before ever reaching prev_pkey_eq).
// Giving this check priority is what makes scenario S6 (delete then
// reinsert of the same key within one batch) actually reachable.
func calcTransition(cfg EngineConfig, rowAlreadyExists, prevValid, curValid, exists, eq, reinsertedAfterDelete bool) (Transition, error) {
	prevExisted := rowAlreadyExists && prevValid

	switch {
	case !rowAlreadyExists && !curValid && !cfg.BackoutInvalidNEQFT:
		return TransitionNeqFT, nil

	case rowAlreadyExists && !prevValid && !curValid && !cfg.BackoutEQInvalidInvalid:
		return TransitionEqTT, nil

	case rowAlreadyExists && reinsertedAfterDelete:
		return TransitionNeqTDT, nil

	case !prevExisted && !exists:
		return TransitionEqFF, nil

	case rowAlreadyExists && exists && !prevValid && curValid && !cfg.BackoutNVEQFT:
		return TransitionNveqFT, nil

	case prevExisted && exists && eq:
		return TransitionEqTT, nil

	case !prevExisted && exists:
		return TransitionNeqFT, nil

	case prevExisted && !exists:
		return TransitionNeqTF, nil

	case prevExisted && exists && !eq:
		return TransitionNeqTT, nil
	}

	return 0, ErrUnexpectedTransition
}
