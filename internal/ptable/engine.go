package ptable

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Engine is the incremental update engine over one keyed columnar table —
// the Go analogue of the original's t_gnode. It owns the master state, the
// single input port, the computed-column registry, and the registered
// contexts, and exposes ProcessBatch to drain the input port into the
// master table and notify contexts of what changed.
type Engine struct {
	mu sync.Mutex

	cfg          EngineConfig
	outputSchema Schema
	inputSchema  Schema

	transSchema   Schema
	diffSchema    Schema
	existedSchema Schema

	master       *MasterState
	input        *InputPort
	computedCols *ComputedColumnRegistry
	contexts     *ContextRegistry

	logger  *slog.Logger
	metrics *Metrics

	initialized bool
}

// NewEngine constructs an Engine over outputSchema (the caller's logical row
// shape, excluding psp_pkey/psp_op). pkeyCol must name a column present in
// outputSchema. The engine is not usable until Init is called.
func NewEngine(outputSchema Schema, pkeyCol string, cfg EngineConfig, logger *slog.Logger, metrics *Metrics) (*Engine, error) {
	if _, ok := outputSchema.DTypeOf(pkeyCol); !ok {
		return nil, fmt.Errorf("new engine: pkey column %q not in output schema", pkeyCol)
	}
	if logger == nil {
		logger = slog.Default()
	}

	inputSchema := outputSchema
	if _, ok := inputSchema.DTypeOf(ColPKey); !ok && pkeyCol != ColPKey {
		// The engine always keys on psp_pkey internally; if the
		// caller's pkey column isn't already named psp_pkey, mirror
		// it under that name so master-state lookups are uniform.
		inputSchema = inputSchema.WithColumn(ColPKey, mustDType(outputSchema, pkeyCol))
	}
	inputSchema = inputSchema.WithColumn(ColOp, DTypeUint8)

	return &Engine{
		cfg:           cfg,
		outputSchema:  outputSchema,
		inputSchema:   inputSchema,
		transSchema:   uint8SchemaFrom(outputSchema),
		diffSchema:    boolSchemaFrom(outputSchema),
		existedSchema: NewSchema(ColumnDef{ColExisted, DTypeBool}),
		computedCols:  NewComputedColumnRegistry(),
		contexts:      NewContextRegistry(),
		logger:        logger,
		metrics:       metrics,
	}, nil
}

// InputSchema returns the schema batches sent to Send must conform to:
// the output schema plus the reserved psp_pkey/psp_op columns.
func (e *Engine) InputSchema() Schema { return e.inputSchema }

func mustDType(s Schema, name string) DType {
	d, _ := s.DTypeOf(name)
	return d
}

// Init allocates the master state and input port. Must be called once
// before Send/ProcessBatch.
func (e *Engine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	master, err := NewMasterState(e.inputSchema)
	if err != nil {
		return fmt.Errorf("engine init: %w", err)
	}
	e.master = master
	e.input = NewInputPort(e.inputSchema)
	e.initialized = true
	return nil
}

func (e *Engine) requireInit() error {
	if !e.initialized {
		return ErrEngineNotInitialized
	}
	return nil
}

// Send appends a batch of rows (conforming to the engine's input schema,
// i.e. outputSchema plus psp_pkey/psp_op) to the input port.
func (e *Engine) Send(batch *Table) error {
	if err := e.requireInit(); err != nil {
		return err
	}
	return e.input.Send(batch)
}

// RegisterContext adds a context to be notified on future ProcessBatch
// calls. The names in h.ComputedColumns are not registered here: each must
// already have been added with RegisterComputedColumn, and a name that has
// not is logged as a warning and otherwise ignored. UnregisterContext does
// not remove computed columns either.
func (e *Engine) RegisterContext(h ContextHandle) error {
	if err := e.requireInit(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, cc := range h.ComputedColumns {
		if _, ok := e.computedCols.Get(cc); !ok {
			e.logger.Warn("context registered unknown computed column", "context", h.Name, "column", cc)
		}
	}
	e.contexts.Register(h)
	return nil
}

// UnregisterContext removes a previously registered context.
func (e *Engine) UnregisterContext(name string) error {
	if err := e.requireInit(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.contexts.Unregister(name)
}

// RegisterComputedColumn adds or replaces a computed column definition,
// available to be recomputed on every future batch.
func (e *Engine) RegisterComputedColumn(c ComputedColumn) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.computedCols.Register(c)
}

// MappingSize reports the number of live primary keys in the master table.
func (e *Engine) MappingSize() int {
	return e.master.MappingSize()
}

// GetTable returns the full master table.
func (e *Engine) GetTable() *Table { return e.master.GetTable() }

// GetPkeyedTable returns a compacted view of live rows in slot order.
func (e *Engine) GetPkeyedTable() *Table { return e.master.GetPkeyedTable() }

// GetSortedPkeyedTable returns a compacted, pkey-sorted view of live rows,
// cached per epoch.
func (e *Engine) GetSortedPkeyedTable(epoch uint64) *Table {
	return e.master.GetSortedPkeyedTable(epoch)
}

// PromoteColumn widens a column's dtype along the restricted promotion
// lattice (spec.md §6): narrower integer -> wider integer, integer ->
// float, or anything -> string. It updates the master table, the input
// port's buffered table, and the output/input schemas together, mirroring
// t_gnode::promote_column's three-table update.
func (e *Engine) PromoteColumn(name string, to DType) error {
	if err := e.requireInit(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	from, ok := e.outputSchema.DTypeOf(name)
	if !ok {
		from, ok = e.inputSchema.DTypeOf(name)
		if !ok {
			return fmt.Errorf("promote column %q: %w", name, ErrUnknownDType)
		}
	}
	if !isPromotionAllowed(from, to) {
		return fmt.Errorf("promote column %q from %s to %s: %w", name, from, to, ErrUnsupportedPromotion)
	}

	if err := e.master.table.Retype(name, to); err != nil {
		return fmt.Errorf("promote column %q: master: %w", name, err)
	}
	if err := e.input.table.Retype(name, to); err != nil {
		return fmt.Errorf("promote column %q: input port: %w", name, err)
	}
	if s, err := e.outputSchema.Retype(name, to); err == nil {
		e.outputSchema = s
	}
	if s, err := e.inputSchema.Retype(name, to); err == nil {
		e.inputSchema = s
	}
	e.master.schema = e.inputSchema
	e.input.schema = e.inputSchema
	return nil
}

// isPromotionAllowed implements the restricted promotion lattice: same
// family widening, int->float, or anything->string.
func isPromotionAllowed(from, to DType) bool {
	if from == to {
		return true
	}
	if to == DTypeString {
		return true
	}
	if from.IsFloat() && !to.IsFloat() {
		return false
	}
	return from.promotionRank() <= to.promotionRank()
}

// ProcessBatch drains the input port and reconciles the accumulated batch
// against the master table, following spec.md §4.8's per-engine steps.
// It returns whether contexts should be notified (should_notify) and any
// error. A nil error with a non-empty batch means the batch was fully
// applied; errors from per-column or computed-column evaluation other than
// Unknown*/Unexpected* are logged and do not abort the batch, per spec.md
// §7's differentiated policy.
func (e *Engine) ProcessBatch(ctx context.Context) (bool, error) {
	if err := e.requireInit(); err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	batch := e.input.ReleaseOrClear()
	if batch.NumRows() == 0 {
		return false, nil
	}

	batchOps := batch.Column(ColOp)
	for i := 0; i < batch.NumRows(); i++ {
		if op := Op(batchOps.Get(i).I64); op != OpInsert && op != OpDelete {
			return false, fmt.Errorf("process batch: row %d op %d: %w", i, op, ErrUnknownOp)
		}
	}

	flattened, reinsertedAfterDelete, err := Flatten(batch, e.inputSchema)
	if err != nil {
		return false, fmt.Errorf("process batch: flatten: %w", err)
	}

	if e.master.MappingSize() == 0 {
		return e.processFirstLoad(flattened)
	}

	lookups := e.master.snapshotLookups(flattened.Column(ColPKey))

	masterTable := e.master.GetTable()
	e.computedCols.Recompute(masterTable, e.computeErrSink)
	e.computedCols.Recompute(flattened, e.computeErrSink)

	res := maskExistedRows(flattened, lookups, reinsertedAfterDelete)
	maskCount := res.existedMask.Count()

	ps := &processState{
		cfg:                   e.cfg,
		flattened:             flattened,
		master:                masterTable,
		lookups:               lookups,
		addedOffset:           res.addedOffset,
		reinsertedAfterDelete: res.reinsertedAfterDelete,
		existedMask:           res.existedMask,
		existed:               res.existed,
		maskCount:             maskCount,
	}

	transSchema := e.transSchema
	diffSchema := e.diffSchema

	ps.delta = NewTable(e.outputSchema, maskCount)
	ps.previous = NewTable(e.outputSchema, maskCount)
	ps.current = NewTable(e.outputSchema, maskCount)
	ps.transitions = NewTable(withComputedStubs(transSchema, e.computedCols, DTypeUint8), maskCount)
	ps.diff = NewTable(withComputedStubs(diffSchema, e.computedCols, DTypeBool), 1)
	e.computedCols.AddStubs(ps.transitions, DTypeUint8)
	e.computedCols.AddStubs(ps.diff, DTypeBool)

	e.computedCols.Recompute(ps.delta, e.computeErrSink)
	e.computedCols.Recompute(ps.previous, e.computeErrSink)
	e.computedCols.Recompute(ps.current, e.computeErrSink)

	names := make([]string, 0, len(e.outputSchema.Columns)+len(e.computedCols.Names()))
	for _, c := range e.outputSchema.Columns {
		names = append(names, c.Name)
	}
	names = append(names, e.computedCols.Names()...)

	shouldNotify, err := processAllColumns(ctx, ps, names, flattened.Schema(), e.cfg)
	if err != nil {
		return false, fmt.Errorf("process batch: %w", err)
	}

	e.computedCols.Recompute(ps.delta, e.computeErrSink)
	e.computedCols.Recompute(ps.previous, e.computeErrSink)
	e.computedCols.Recompute(ps.current, e.computeErrSink)

	flattenedMasked := flattened
	filteredLookups := lookups
	if maskCount != flattened.NumRows() {
		flattenedMasked = flattened.Clone(res.existedMask)
		filteredLookups = make([]RowLookup, 0, maskCount)
		for i := 0; i < flattened.NumRows(); i++ {
			if res.existedMask.Get(i) {
				filteredLookups = append(filteredLookups, lookups[i])
			}
		}
	}

	if err := e.master.ApplyFlattened(flattenedMasked, filteredLookups, func() { e.master.invalidateSortedCache(ctx) }); err != nil {
		return false, fmt.Errorf("process batch: apply: %w", err)
	}

	// Recompute once more now that the master table reflects this
	// batch's applied values, so a computed column read back from the
	// master table is never one batch stale.
	e.computedCols.Recompute(e.master.table, e.computeErrSink)

	set := &TransitionalSet{
		Flattened:    flattenedMasked,
		Delta:        ps.delta,
		Previous:     ps.previous,
		Current:      ps.current,
		Transitions:  ps.transitions,
		Existed:      res.existed,
		Diff:         ps.diff,
		ShouldNotify: shouldNotify,
	}

	if shouldNotify {
		if err := notifyContexts(ctx, e.contexts.Handles(), set, e.cfg); err != nil {
			e.logger.Error("context notify failed", "err", err)
		}
	}

	if e.metrics != nil {
		e.metrics.BatchesProcessed.Inc()
		e.metrics.MappingSize.Set(float64(e.master.MappingSize()))
		if shouldNotify {
			e.metrics.NotifyOutcomes.WithLabelValues("notified").Inc()
		} else {
			e.metrics.NotifyOutcomes.WithLabelValues("skipped").Inc()
		}
	}

	return shouldNotify, nil
}

// processFirstLoad handles the case where the master table is empty: the
// entire flattened batch is applied unconditionally and contexts are always
// notified, matching the original's mapping_size()==0 fast path in
// _process_table, which skips transition computation entirely on the very
// first load.
func (e *Engine) processFirstLoad(flattened *Table) (bool, error) {
	lookups := make([]RowLookup, flattened.NumRows())
	if err := e.master.ApplyFlattened(flattened, lookups, func() { e.master.invalidateSortedCache(context.Background()) }); err != nil {
		return false, fmt.Errorf("process batch: first load apply: %w", err)
	}

	set := &TransitionalSet{
		Flattened:    flattened,
		ShouldNotify: true,
	}
	if err := notifyContexts(context.Background(), e.contexts.Handles(), set, e.cfg); err != nil {
		e.logger.Error("context notify failed", "err", err)
	}
	if e.metrics != nil {
		e.metrics.BatchesProcessed.Inc()
		e.metrics.MappingSize.Set(float64(e.master.MappingSize()))
		e.metrics.NotifyOutcomes.WithLabelValues("notified").Inc()
	}
	return true, nil
}

func (e *Engine) computeErrSink(name string, err error) {
	e.logger.Error("computed column failed", "column", name, "err", err)
	if e.metrics != nil {
		e.metrics.ComputeErrors.WithLabelValues(name).Inc()
	}
}

// withComputedStubs returns a copy of base extended with one column per
// registered computed column, all of dtype stubType — used to size the
// transitions/diff tables to include computed columns alongside the output
// schema's own columns.
func withComputedStubs(base Schema, reg *ComputedColumnRegistry, stubType DType) Schema {
	out := base
	for _, name := range reg.Names() {
		if _, ok := out.DTypeOf(name); !ok {
			out = out.WithColumn(name, stubType)
		}
	}
	return out
}
