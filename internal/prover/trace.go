package prover

import (
	"strconv"
	"strings"

	"reserveguard/internal/attestation"
	dErrors "reserveguard/pkg/domain-errors"
)

// Trace markers emitted by the guest program.
const (
	MarkerResult   = "PROOF_RESULT:"
	MarkerSolvency = "PROOF_SOLVENCY:"
	MarkerVerdict  = "VERDICT:"
)

// ResultValue finds marker in lines and returns the numeric value after it.
// The value sits either after the marker on the same line or alone on the
// next line. Lines whose value does not parse are skipped.
func ResultValue(lines []string, marker string) (uint8, bool) {
	for i, line := range lines {
		idx := strings.Index(line, marker)
		if idx < 0 {
			continue
		}
		after := strings.TrimSpace(line[idx+len(marker):])
		if after != "" {
			if v, err := strconv.ParseUint(after, 10, 8); err == nil {
				return uint8(v), true
			}
			continue
		}
		if i+1 < len(lines) {
			if v, err := strconv.ParseUint(strings.TrimSpace(lines[i+1]), 10, 8); err == nil {
				return uint8(v), true
			}
		}
	}
	return 0, false
}

// VerdictValue returns the verdict named after the VERDICT marker, if any.
func VerdictValue(lines []string) (attestation.Verdict, bool) {
	for _, line := range lines {
		idx := strings.Index(line, MarkerVerdict)
		if idx < 0 {
			continue
		}
		v := attestation.Verdict(strings.TrimSpace(line[idx+len(MarkerVerdict):]))
		if v.IsValid() {
			return v, true
		}
	}
	return "", false
}

// MarkerFor picks the result marker for the attestation's mode.
func MarkerFor(a attestation.Attestation) string {
	if a.HasLiabilities() {
		return MarkerSolvency
	}
	return MarkerResult
}

// Check reconciles a trace with the in-process evaluation. Any failure is a
// prover error: the submission must not be applied or saved.
//
// Rule priority:
//  1. Non-zero guest exit status.
//  2. An explicit verdict that disagrees with the evaluation.
//  3. A missing result marker (operator mismatches run no arithmetic and
//     need none).
//  4. A result value that disagrees with the evaluation.
func Check(trace *Trace, a attestation.Attestation, eval *attestation.Evaluation) error {
	if trace == nil {
		return dErrors.New(dErrors.CodeProver, "prover returned no trace")
	}
	// Rule 1: guest failure
	if trace.ExitCode != 0 {
		return dErrors.Newf(dErrors.CodeProver, "guest exited with code %d", trace.ExitCode)
	}

	// Rule 2: explicit verdict
	if v, ok := VerdictValue(trace.Lines); ok && v != eval.Verdict {
		return dErrors.Newf(dErrors.CodeProver, "prover verdict %s disagrees with evaluation %s", v, eval.Verdict)
	}
	if eval.Verdict == attestation.VerdictOperatorMismatch {
		return nil
	}

	// Rule 3: result marker
	marker := MarkerFor(a)
	value, ok := ResultValue(trace.Lines, marker)
	if !ok {
		return dErrors.Newf(dErrors.CodeProver, "%s not found in guest logs", strings.TrimSuffix(marker, ":"))
	}

	// Rule 4: result value
	passed := value == 1
	if passed != !eval.Verdict.IsAdverse() {
		return dErrors.Newf(dErrors.CodeProver, "prover result %d disagrees with evaluation %s", value, eval.Verdict)
	}
	return nil
}
