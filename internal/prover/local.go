package prover

import (
	"context"
	"fmt"

	"reserveguard/internal/attestation"
)

// Local is the in-process reference guest. It runs the same evaluation the
// core does and emits the trace the real guest would, which makes it useful
// for development and for exercising the reconciliation path end to end.
type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Prove(ctx context.Context, a attestation.Attestation) (*Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines := []string{"GUEST: Starting proof-of-reserves"}

	eval, err := attestation.Evaluate(a)
	if err != nil {
		lines = append(lines, fmt.Sprintf("GUEST: evaluation failed: %v", err))
		return &Trace{Lines: lines, ExitCode: 1}, nil
	}

	if eval.Verdict != attestation.VerdictOperatorMismatch {
		result := 0
		if !eval.Verdict.IsAdverse() {
			result = 1
		}
		lines = append(lines, fmt.Sprintf("%s %d", MarkerFor(a), result))
	}
	lines = append(lines, fmt.Sprintf("%s %s", MarkerVerdict, eval.Verdict))
	return &Trace{Lines: lines}, nil
}
