package attestation

// Verdict is the evaluator's categorical judgment of an attestation.
type Verdict string

const (
	VerdictVerified         Verdict = "verified"
	VerdictThresholdFail    Verdict = "threshold_fail"
	VerdictSolvent          Verdict = "solvent"
	VerdictInsolvent        Verdict = "insolvent"
	VerdictOperatorMismatch Verdict = "operator_mismatch"
)

// IsValid checks if the verdict is one of the supported enum values.
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictVerified, VerdictThresholdFail, VerdictSolvent, VerdictInsolvent, VerdictOperatorMismatch:
		return true
	}
	return false
}

// IsAdverse reports whether the verdict costs the participant a strike.
func (v Verdict) IsAdverse() bool {
	switch v {
	case VerdictThresholdFail, VerdictInsolvent, VerdictOperatorMismatch:
		return true
	}
	return false
}

func (v Verdict) String() string {
	return string(v)
}

// AssetReserve is one asset class of an attestation: the balances held across
// wallets or accounts and the minimum total the policy requires.
type AssetReserve struct {
	Asset     string   `json:"asset"`
	Balances  []uint64 `json:"balances"`
	Threshold uint64   `json:"threshold"`
}

// Attestation is a participant's claim about its reserves.
//
// Liabilities distinguishes absent (nil) from present-but-empty: a non-nil
// slice switches evaluation to solvency mode even when it holds no entries.
type Attestation struct {
	BankID          string         `json:"bank_id"`
	ReserveOperator string         `json:"reserve_operator"`
	Assets          []AssetReserve `json:"assets"`
	Liabilities     []uint64       `json:"liabilities"`
}

// HasLiabilities reports whether the attestation is a solvency claim.
func (a Attestation) HasLiabilities() bool {
	return a.Liabilities != nil
}

// AssetTotal is the summed balance of one asset class.
type AssetTotal struct {
	Asset     string `json:"asset"`
	Total     uint64 `json:"total"`
	Threshold uint64 `json:"threshold"`
	Passed    bool   `json:"passed"`
}

// Evaluation is the verdict plus the figures it was derived from.
// Totals are left empty for an operator mismatch since no arithmetic runs.
type Evaluation struct {
	Verdict          Verdict      `json:"verdict"`
	Assets           []AssetTotal `json:"assets,omitempty"`
	TotalAssets      uint64       `json:"total_assets"`
	TotalLiabilities uint64       `json:"total_liabilities"`
	CID              string       `json:"attestation_cid"`
}
