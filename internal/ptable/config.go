package ptable

// EngineConfig tunes an Engine's behavior. It replaces the original
// implementation's process-wide environment-variable flags
// (PSP_BACKOUT_*, PSP_PARALLEL_FOR, PSP_GNODE_VERIFY) with per-engine,
// explicit configuration — the redesign spec.md §9 calls for.
type EngineConfig struct {
	// BackoutInvalidNEQFT suppresses the clause that reports NEQ_FT for
	// a key new to master whose incoming cell is invalid, matching
	// PSP_BACKOUT_INVALID_NEQ_FT.
	BackoutInvalidNEQFT bool

	// BackoutEQInvalidInvalid suppresses the invalid-equals-invalid
	// clause (EQ_TT for an existing row whose cell is null both before
	// and after the batch), matching PSP_BACKOUT_EQ_INVALID_INVALID.
	BackoutEQInvalidInvalid bool

	// BackoutNVEQFT suppresses the not-valid-equals, false-to-true
	// clause (NVEQ_FT), matching PSP_BACKOUT_NVEQ_FT.
	BackoutNVEQFT bool

	// ParallelColumns enables a pond-backed parallel-for over columns
	// during per-batch processing (§4.6), matching
	// #ifdef PSP_PARALLEL_FOR / tbb::parallel_for in the original.
	ParallelColumns bool

	// ParallelContexts enables a pond-backed parallel-for over
	// registered contexts during notify (§4.9).
	ParallelContexts bool

	// Verify is the counterpart of the original's PSP_GNODE_VERIFY flag.
	// It is carried in the configuration but not read by the engine:
	// no structural consistency checks are run whatever its value.
	Verify bool
}

// DefaultEngineConfig returns the zero-value configuration: no backout
// flags suppressed, sequential processing, no verification — the
// conservative default matching upstream Perspective's behavior when none
// of its env vars are set.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{}
}
