package ptable

import (
	"context"
	"errors"
	"fmt"

	"github.com/alitto/pond/v2"
)

// TransitionalSet bundles the six tables produced by one ProcessBatch call
// plus the single-row diff table, handed to every registered Context's
// Notify method. It is only valid for the duration of the Notify call that
// receives it — the engine rebuilds it fresh on the next ProcessBatch.
type TransitionalSet struct {
	Flattened    *Table
	Delta        *Table
	Previous     *Table
	Current      *Table
	Transitions  *Table
	Existed      *Table
	Diff         *Table
	ShouldNotify bool
}

// Context is the capability interface every registered view implements. The
// engine dispatches to it rather than branching on a runtime kind tag —
// see spec.md §9's design note and DESIGN.md.
type Context interface {
	Reset()
	StepBegin()
	Notify(set *TransitionalSet) error
	StepEnd()
	HasDeltas() bool
}

// ContextHandle is a named registration of a Context, along with the
// computed columns it additionally requires.
type ContextHandle struct {
	Name            string
	Kind            string
	Context         Context
	ComputedColumns []string
}

// ContextRegistry owns the set of registered contexts for an Engine.
type ContextRegistry struct {
	handles map[string]ContextHandle
	order   []string
}

func NewContextRegistry() *ContextRegistry {
	return &ContextRegistry{handles: make(map[string]ContextHandle)}
}

func (r *ContextRegistry) Register(h ContextHandle) {
	if _, exists := r.handles[h.Name]; !exists {
		r.order = append(r.order, h.Name)
	}
	r.handles[h.Name] = h
}

func (r *ContextRegistry) Unregister(name string) error {
	if _, ok := r.handles[name]; !ok {
		return fmt.Errorf("unregister %q: %w", name, ErrUnknownContext)
	}
	delete(r.handles, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *ContextRegistry) Handles() []ContextHandle {
	out := make([]ContextHandle, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.handles[n])
	}
	return out
}

// notifyContexts dispatches step_begin -> notify -> step_end to every
// registered context. Per spec.md §4.9, contexts run concurrently with each
// other (when cfg.ParallelContexts is set) but each context's own three
// calls happen strictly sequentially. Concurrency is implemented with a
// pond pool group, the same fan-out/collect pattern the teacher uses for
// per-item concurrent work.
func notifyContexts(ctx context.Context, handles []ContextHandle, set *TransitionalSet, cfg EngineConfig) error {
	if !cfg.ParallelContexts || len(handles) <= 1 {
		var errs []error
		for _, h := range handles {
			if err := runContextStep(h, set); err != nil {
				errs = append(errs, fmt.Errorf("context %q: %w", h.Name, err))
			}
		}
		return errors.Join(errs...)
	}

	pool := pond.NewPool(len(handles))
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)
	for _, h := range handles {
		h := h
		group.SubmitErr(func() error {
			if err := runContextStep(h, set); err != nil {
				return fmt.Errorf("context %q: %w", h.Name, err)
			}
			return nil
		})
	}
	return group.Wait()
}

func runContextStep(h ContextHandle, set *TransitionalSet) error {
	h.Context.StepBegin()
	err := h.Context.Notify(set)
	h.Context.StepEnd()
	return err
}
