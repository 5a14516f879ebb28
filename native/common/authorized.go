package common

import "arcchain/arcerr"

// CallerKind distinguishes the two authorised out-of-band callers the
// registry exposes (spec §6): the escrow program driving
// record_service_completion and the dispute-resolution program driving
// record_dispute_outcome.
type CallerKind uint8

const (
	CallerEscrow CallerKind = iota
	CallerDDR
)

// Caller describes the invoking program account for a gated cross-program
// call (spec §6: "the caller account must be a signer and marked
// executable").
type Caller struct {
	Program    [32]byte
	IsSigner   bool
	Executable bool
}

// Allowlist is process-wide configuration with init-once semantics (spec
// DESIGN NOTES §9: "set at program load; never mutated"), kept here as a
// plain value so tests can construct their own instead of reaching through
// global state.
type Allowlist struct {
	Escrow [32]byte
	DDR    [32]byte
}

// AuthorizedFor is the pure function DESIGN NOTES §9 asks for in place of
// global mutable state: it takes the allowlist as a parameter so a caller
// can be verified against any allowlist, injected or real.
func AuthorizedFor(allow Allowlist, kind CallerKind, caller Caller) error {
	if !caller.IsSigner {
		return arcerr.New(arcerr.CodeMissingRequiredSignature)
	}
	if !caller.Executable {
		return arcerr.New(arcerr.CodeInvalidProgramAccount)
	}
	var want [32]byte
	switch kind {
	case CallerEscrow:
		want = allow.Escrow
	case CallerDDR:
		want = allow.DDR
	}
	if caller.Program != want {
		return arcerr.New(arcerr.CodeUnauthorizedProgram)
	}
	return nil
}
