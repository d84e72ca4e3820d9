package ptable

import "errors"

// Sentinel errors for the engine's error taxonomy (spec §7). Wrap these with
// fmt.Errorf("...: %w", ErrX) to preserve errors.Is matching while attaching
// context.
var (
	// ErrSchemaMismatch is returned when a batch sent to an input port does
	// not match the port's declared schema.
	ErrSchemaMismatch = errors.New("ptable: schema mismatch")

	// ErrUnknownDType is returned when a column carries a DType the engine
	// does not recognize, e.g. during per-column dispatch or promotion.
	ErrUnknownDType = errors.New("ptable: unknown dtype")

	// ErrUnknownOp is returned when a row's psp_op value is neither
	// OpInsert nor OpDelete.
	ErrUnknownOp = errors.New("ptable: unknown row operation")

	// ErrInvalidComputedFunction is returned when a computed column's
	// function fails to produce a column of the expected length and type.
	ErrInvalidComputedFunction = errors.New("ptable: invalid computed function")

	// ErrUnsupportedPromotion is returned when PromoteColumn is asked to
	// move a column somewhere outside the restricted promotion lattice.
	ErrUnsupportedPromotion = errors.New("ptable: unsupported column promotion")

	// ErrUnexpectedTransition is returned when calcTransition falls through
	// its decision table without matching any clause.
	ErrUnexpectedTransition = errors.New("ptable: unexpected transition")

	// ErrEngineNotInitialized is returned by the Engine methods that return
	// an error (Send, RegisterContext, UnregisterContext, PromoteColumn,
	// ProcessBatch) when invoked before Init. The read accessors
	// (MappingSize, GetTable and the pkeyed views) do not check and must
	// not be called before Init; RegisterComputedColumn works either way.
	ErrEngineNotInitialized = errors.New("ptable: engine not initialized")

	// ErrUnknownContext is returned by UnregisterContext for a name that
	// was never registered.
	ErrUnknownContext = errors.New("ptable: unknown context")
)
