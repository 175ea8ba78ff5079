package prover

import (
	"context"

	"reserveguard/internal/attestation"
)

//go:generate mockgen -source=prover.go -destination=mocks/mocks.go -package=mocks Prover

// Trace is what the verifiable-computation engine reports back: its log lines
// in emission order and the guest's exit status.
type Trace struct {
	Lines    []string `json:"lines"`
	ExitCode int      `json:"exit_code"`
}

// Prover runs the attestation through the external engine. Calls are
// synchronous and may take minutes; cancellation comes from ctx.
type Prover interface {
	Prove(ctx context.Context, a attestation.Attestation) (*Trace, error)
}
