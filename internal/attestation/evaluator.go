package attestation

import (
	"math/bits"

	dErrors "reserveguard/pkg/domain-errors"
)

// Evaluate turns an attestation into a verdict.
// This is pure domain logic - no I/O, no side effects. Identical inputs always
// produce identical results so the outcome can be replayed against the
// prover's trace.
//
// Rule priority (first match wins):
//  1. Operator identity must match the bank identity
//  2. Liabilities present: total assets >= total liabilities
//  3. Otherwise: every asset class total >= its threshold
func Evaluate(a Attestation) (*Evaluation, error) {
	if err := Validate(a); err != nil {
		return nil, err
	}
	cid, err := Fingerprint(a)
	if err != nil {
		return nil, err
	}

	// Rule 1: operator mismatch short-circuits all arithmetic
	if a.ReserveOperator != a.BankID {
		return &Evaluation{Verdict: VerdictOperatorMismatch, CID: cid}, nil
	}

	totals := make([]AssetTotal, 0, len(a.Assets))
	var totalAssets uint64
	for _, reserve := range a.Assets {
		sum, err := checkedSum(reserve.Balances)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "sum balances for "+reserve.Asset)
		}
		totalAssets, err = checkedAdd(totalAssets, sum)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "sum total assets")
		}
		totals = append(totals, AssetTotal{
			Asset:     reserve.Asset,
			Total:     sum,
			Threshold: reserve.Threshold,
			Passed:    sum >= reserve.Threshold,
		})
	}

	eval := &Evaluation{
		Assets:      totals,
		TotalAssets: totalAssets,
		CID:         cid,
	}

	// Rule 2: solvency mode ignores thresholds entirely
	if a.HasLiabilities() {
		liabilities, err := checkedSum(a.Liabilities)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "sum liabilities")
		}
		eval.TotalLiabilities = liabilities
		if totalAssets >= liabilities {
			eval.Verdict = VerdictSolvent
		} else {
			eval.Verdict = VerdictInsolvent
		}
		return eval, nil
	}

	// Rule 3: threshold mode requires every class to pass
	eval.Verdict = VerdictVerified
	for _, t := range totals {
		if !t.Passed {
			eval.Verdict = VerdictThresholdFail
			break
		}
	}
	return eval, nil
}

// Validate checks the structural invariants of an attestation.
func Validate(a Attestation) error {
	if a.BankID == "" {
		return dErrors.New(dErrors.CodeValidation, "bank_id is required")
	}
	if a.ReserveOperator == "" {
		return dErrors.New(dErrors.CodeValidation, "reserve_operator is required")
	}
	if len(a.Assets) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one asset class is required")
	}
	seen := make(map[string]struct{}, len(a.Assets))
	for _, reserve := range a.Assets {
		if reserve.Asset == "" {
			return dErrors.New(dErrors.CodeValidation, "asset name is required")
		}
		if _, dup := seen[reserve.Asset]; dup {
			return dErrors.Newf(dErrors.CodeValidation, "duplicate asset class %q", reserve.Asset)
		}
		seen[reserve.Asset] = struct{}{}
	}
	return nil
}

func checkedSum(values []uint64) (uint64, error) {
	var sum uint64
	var err error
	for _, v := range values {
		if sum, err = checkedAdd(sum, v); err != nil {
			return 0, err
		}
	}
	return sum, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}
