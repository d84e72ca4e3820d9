package ptable

import "fmt"

// ComputeFunc is a pure function of named input columns producing a typed
// output column of the same length. Implementations must not mutate the
// inputs.
type ComputeFunc func(inputs []*Column, outputSize int) (*Column, error)

// ComputedColumn describes one named computed column: its declared output
// dtype, its input column names (resolved against whichever table it is
// recomputed over), and the function itself.
type ComputedColumn struct {
	Name       string
	OutputType DType
	Inputs     []string
	Func       ComputeFunc
}

// ComputedColumnRegistry merges computed column declarations by name across
// all registered contexts, so a column requested by two contexts is
// computed once per batch.
type ComputedColumnRegistry struct {
	byName map[string]ComputedColumn
	order  []string
}

func NewComputedColumnRegistry() *ComputedColumnRegistry {
	return &ComputedColumnRegistry{byName: make(map[string]ComputedColumn)}
}

// Register adds or replaces a computed column declaration.
func (r *ComputedColumnRegistry) Register(c ComputedColumn) {
	if _, exists := r.byName[c.Name]; !exists {
		r.order = append(r.order, c.Name)
	}
	r.byName[c.Name] = c
}

// Unregister removes a computed column declaration.
func (r *ComputedColumnRegistry) Unregister(name string) {
	if _, exists := r.byName[name]; !exists {
		return
	}
	delete(r.byName, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Names returns registered computed column names in registration order.
func (r *ComputedColumnRegistry) Names() []string {
	return append([]string(nil), r.order...)
}

// Get returns the named computed column and whether it is registered.
func (r *ComputedColumnRegistry) Get(name string) (ComputedColumn, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Recompute evaluates every registered computed column against table t,
// writing (or replacing) the corresponding output column on t. Errors from
// an individual computed function are reported through errSink (log-and-
// continue, per spec.md §7's differentiated policy) rather than aborting
// the whole batch; that column is left absent for this table on failure.
func (r *ComputedColumnRegistry) Recompute(t *Table, errSink func(name string, err error)) {
	for _, name := range r.order {
		cc := r.byName[name]
		inputs := make([]*Column, len(cc.Inputs))
		missing := false
		for i, in := range cc.Inputs {
			inputs[i] = t.Column(in)
			if inputs[i] == nil {
				missing = true
				break
			}
		}
		if missing {
			continue
		}
		out, err := cc.Func(inputs, t.NumRows())
		if err != nil {
			errSink(name, fmt.Errorf("compute %q: %w", name, ErrInvalidComputedFunction))
			continue
		}
		if out.Len() != t.NumRows() || out.DType != cc.OutputType {
			errSink(name, fmt.Errorf("compute %q: output shape mismatch: %w", name, ErrInvalidComputedFunction))
			continue
		}
		out.Name = name
		existing := t.Column(name)
		if existing == nil {
			t.AddColumn(name, cc.OutputType)
		}
		t.columns[name] = out
	}
}

// AddStubs ensures every registered computed column has a placeholder
// column on t with the given dtype — used to add UINT8/BOOL stub columns to
// the transitions/diff tables ahead of per-column processing, matching the
// original's stub-column step in _process_table.
func (r *ComputedColumnRegistry) AddStubs(t *Table, stubType DType) {
	for _, name := range r.order {
		if !t.HasColumn(name) {
			t.AddColumn(name, stubType)
		}
	}
}
