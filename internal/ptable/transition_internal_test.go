package ptable

import "testing"

func TestCalcTransitionDecisionTable(t *testing.T) {
	cfg := DefaultEngineConfig()

	cases := []struct {
		name                                                string
		rowAlreadyExists, prevValid, curValid, exists, eq   bool
		reinsertedAfterDelete                                bool
		want                                                Transition
	}{
		{
			name: "brand new key, explicit null insert",
			// rowAlreadyExists=false, curValid=false -> clause 1.
			curValid: false, exists: false,
			want: TransitionNeqFT,
		},
		{
			name:             "existing row, cell was and stays null",
			rowAlreadyExists: true, prevValid: false, curValid: false, exists: false,
			want: TransitionEqTT,
		},
		{
			name:     "brand new key, first valid insert",
			curValid: true, exists: true,
			want: TransitionNeqFT,
		},
		{
			name:             "existing row, previously-null cell gets a value",
			rowAlreadyExists: true, prevValid: false, curValid: true, exists: true,
			want: TransitionNveqFT,
		},
		{
			name:             "existing valid cell, unchanged (possibly via null-coalescing)",
			rowAlreadyExists: true, prevValid: true, curValid: true, exists: true, eq: true,
			want: TransitionEqTT,
		},
		{
			name:             "existing valid cell, changed",
			rowAlreadyExists: true, prevValid: true, curValid: true, exists: true, eq: false,
			want: TransitionNeqTT,
		},
		{
			name:             "existing valid cell, explicit null with no coalescing possible",
			rowAlreadyExists: true, prevValid: true, curValid: false, exists: false,
			want: TransitionNeqTF,
		},
		{
			name:                  "existing key, deleted then reinserted within the same batch",
			rowAlreadyExists:      true,
			prevValid:             true,
			curValid:              true,
			exists:                true,
			eq:                    true, // even an unchanged value still reports a reinsert
			reinsertedAfterDelete: true,
			want:                  TransitionNeqTDT,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := calcTransition(cfg, tc.rowAlreadyExists, tc.prevValid, tc.curValid, tc.exists, tc.eq, tc.reinsertedAfterDelete)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("calcTransition(%+v) = %v, want %v", tc, got, tc.want)
			}
		})
	}
}

func TestCalcTransitionBackoutFlags(t *testing.T) {
	// BackoutEQInvalidInvalid suppresses clause 2, letting clause 3
	// (EQ_FF) match instead for an existing row whose cell was and
	// remains invalid.
	cfg := EngineConfig{BackoutEQInvalidInvalid: true}
	got, err := calcTransition(cfg, true, false, false, false, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != TransitionEqFF {
		t.Errorf("with BackoutEQInvalidInvalid, got %v, want EQ_FF", got)
	}

	// BackoutInvalidNEQFT suppresses clause 1, letting clause 3 (EQ_FF)
	// match instead for a brand new key inserted with a null cell.
	cfg2 := EngineConfig{BackoutInvalidNEQFT: true}
	got2, err := calcTransition(cfg2, false, false, false, false, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got2 != TransitionEqFF {
		t.Errorf("with BackoutInvalidNEQFT, got %v, want EQ_FF", got2)
	}

	// BackoutNVEQFT suppresses clause 4, letting clause 6 match instead
	// for an existing row whose previously-null cell gets a value.
	cfg3 := EngineConfig{BackoutNVEQFT: true}
	got3, err := calcTransition(cfg3, true, false, true, true, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got3 != TransitionNeqFT {
		t.Errorf("with BackoutNVEQFT, got %v, want NEQ_FT", got3)
	}
}

func TestTransitionIsDiff(t *testing.T) {
	if TransitionEqFF.isDiff() {
		t.Error("EQ_FF should not be a diff")
	}
	if TransitionEqTT.isDiff() {
		t.Error("EQ_TT should not be a diff")
	}
	if !TransitionNeqFT.isDiff() {
		t.Error("NEQ_FT should be a diff")
	}
	if !TransitionNeqTDF.isDiff() {
		t.Error("NEQ_TDF should be a diff")
	}
}
