// Package ptctx provides minimal, non-canonical reference implementations of
// the ptable.Context capability interface, used to exercise the engine's
// notify dispatcher in tests and the demo command. Full view kinds (pivot,
// sorted, two-sided) remain out of scope; these exist only to give the
// dispatcher something concrete to call.
package ptctx

import (
	"sync"

	"github.com/nullstate/ptable/internal/ptable"
)

// TallyContext counts, per column, the observed batches in which that column
// changed (its diff-table bit was set). It implements ptable.Context.
type TallyContext struct {
	mu      sync.Mutex
	counts  map[string]int
	batches int
}

func NewTallyContext() *TallyContext {
	return &TallyContext{counts: make(map[string]int)}
}

func (t *TallyContext) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts = make(map[string]int)
	t.batches = 0
}

func (t *TallyContext) StepBegin() {}
func (t *TallyContext) StepEnd()   {}

func (t *TallyContext) Notify(set *ptable.TransitionalSet) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.batches++
	if set.Diff == nil {
		return nil
	}
	for _, name := range set.Diff.Schema().Names() {
		col := set.Diff.Column(name)
		if col.Len() == 0 {
			continue
		}
		if col.Get(0).Valid && col.Get(0).I64 != 0 {
			t.counts[name]++
		}
	}
	return nil
}

func (t *TallyContext) HasDeltas() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.batches > 0
}

// Counts returns a copy of the per-column change-count tally.
func (t *TallyContext) Counts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}
