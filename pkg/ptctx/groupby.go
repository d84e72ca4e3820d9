package ptctx

import (
	"sync"

	"github.com/nullstate/ptable/internal/ptable"
)

// GroupByContext keeps, per distinct value of one grouping column, a running
// count of the flattened rows it has been notified of that carry that value.
// Every such row adds one, whether it inserts, updates or deletes a key;
// counts are never decreased, so they are not live-row counts. It implements
// ptable.Context.
type GroupByContext struct {
	mu      sync.Mutex
	groupBy string
	groups  map[string]int
}

// NewGroupByContext returns a context that groups on groupByColumn, a
// string-dtype column name.
func NewGroupByContext(groupByColumn string) *GroupByContext {
	return &GroupByContext{groupBy: groupByColumn, groups: make(map[string]int)}
}

func (g *GroupByContext) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.groups = make(map[string]int)
}

func (g *GroupByContext) StepBegin() {}
func (g *GroupByContext) StepEnd()   {}

func (g *GroupByContext) Notify(set *ptable.TransitionalSet) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	col := set.Flattened.Column(g.groupBy)
	if col == nil {
		return nil
	}
	for i := 0; i < set.Flattened.NumRows(); i++ {
		v := col.Get(i)
		if !v.Valid {
			continue
		}
		key := col.Vocabulary().String(v.Str)
		g.groups[key]++
	}
	return nil
}

func (g *GroupByContext) HasDeltas() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.groups) > 0
}

// Groups returns a copy of the current per-group row counts.
func (g *GroupByContext) Groups() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]int, len(g.groups))
	for k, v := range g.groups {
		out[k] = v
	}
	return out
}
