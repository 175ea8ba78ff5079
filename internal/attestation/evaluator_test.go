package attestation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "reserveguard/pkg/domain-errors"
)

func singleAsset(bank, operator string, balances []uint64, threshold uint64) Attestation {
	return Attestation{
		BankID:          bank,
		ReserveOperator: operator,
		Assets:          []AssetReserve{{Asset: "btc", Balances: balances, Threshold: threshold}},
	}
}

func TestEvaluate_ThresholdMode(t *testing.T) {
	tests := []struct {
		name    string
		assets  []AssetReserve
		verdict Verdict
	}{
		{
			name:    "sum below threshold fails",
			assets:  []AssetReserve{{Asset: "btc", Balances: []uint64{40, 50}, Threshold: 100}},
			verdict: VerdictThresholdFail,
		},
		{
			name:    "sum equal to threshold passes",
			assets:  []AssetReserve{{Asset: "btc", Balances: []uint64{40, 60}, Threshold: 100}},
			verdict: VerdictVerified,
		},
		{
			name: "every class must pass",
			assets: []AssetReserve{
				{Asset: "btc", Balances: []uint64{500}, Threshold: 100},
				{Asset: "eth", Balances: []uint64{1, 2}, Threshold: 4},
			},
			verdict: VerdictThresholdFail,
		},
		{
			name: "all classes passing verifies",
			assets: []AssetReserve{
				{Asset: "btc", Balances: []uint64{100, 20}, Threshold: 100},
				{Asset: "eth", Balances: []uint64{1, 3}, Threshold: 4},
			},
			verdict: VerdictVerified,
		},
		{
			name:    "empty balances against zero threshold verifies",
			assets:  []AssetReserve{{Asset: "btc", Threshold: 0}},
			verdict: VerdictVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval, err := Evaluate(Attestation{BankID: "bankA", ReserveOperator: "bankA", Assets: tt.assets})
			require.NoError(t, err)
			assert.Equal(t, tt.verdict, eval.Verdict)
			assert.Zero(t, eval.TotalLiabilities)
			assert.NotEmpty(t, eval.CID)
		})
	}

	t.Run("reports per-asset totals", func(t *testing.T) {
		eval, err := Evaluate(singleAsset("bankA", "bankA", []uint64{40, 50}, 100))
		require.NoError(t, err)
		require.Len(t, eval.Assets, 1)
		assert.Equal(t, AssetTotal{Asset: "btc", Total: 90, Threshold: 100, Passed: false}, eval.Assets[0])
		assert.Equal(t, uint64(90), eval.TotalAssets)
	})
}

func TestEvaluate_SolvencyMode(t *testing.T) {
	t.Run("assets covering liabilities is solvent", func(t *testing.T) {
		a := Attestation{
			BankID:          "bankA",
			ReserveOperator: "bankA",
			Assets: []AssetReserve{
				{Asset: "btc", Balances: []uint64{25, 15}},
				{Asset: "eth", Balances: []uint64{20}},
			},
			Liabilities: []uint64{30, 20},
		}
		eval, err := Evaluate(a)
		require.NoError(t, err)
		assert.Equal(t, VerdictSolvent, eval.Verdict)
		assert.Equal(t, uint64(60), eval.TotalAssets)
		assert.Equal(t, uint64(50), eval.TotalLiabilities)
	})

	t.Run("equality is solvent", func(t *testing.T) {
		a := singleAsset("bankA", "bankA", []uint64{50}, 0)
		a.Liabilities = []uint64{50}
		eval, err := Evaluate(a)
		require.NoError(t, err)
		assert.Equal(t, VerdictSolvent, eval.Verdict)
	})

	t.Run("shortfall is insolvent", func(t *testing.T) {
		a := singleAsset("bankA", "bankA", []uint64{49}, 0)
		a.Liabilities = []uint64{30, 20}
		eval, err := Evaluate(a)
		require.NoError(t, err)
		assert.Equal(t, VerdictInsolvent, eval.Verdict)
	})

	t.Run("thresholds are ignored", func(t *testing.T) {
		a := singleAsset("bankA", "bankA", []uint64{10}, 1_000_000)
		a.Liabilities = []uint64{5}
		eval, err := Evaluate(a)
		require.NoError(t, err)
		assert.Equal(t, VerdictSolvent, eval.Verdict)
	})

	t.Run("present but empty liabilities selects solvency mode", func(t *testing.T) {
		a := singleAsset("bankA", "bankA", []uint64{1}, 100)
		a.Liabilities = []uint64{}
		eval, err := Evaluate(a)
		require.NoError(t, err)
		assert.Equal(t, VerdictSolvent, eval.Verdict)
	})
}

func TestEvaluate_OperatorMismatch(t *testing.T) {
	t.Run("mismatch wins regardless of balances", func(t *testing.T) {
		a := singleAsset("bankA", "custodianB", []uint64{1_000}, 1)
		eval, err := Evaluate(a)
		require.NoError(t, err)
		assert.Equal(t, VerdictOperatorMismatch, eval.Verdict)
		assert.Empty(t, eval.Assets)
	})

	t.Run("mismatch wins over solvency", func(t *testing.T) {
		a := singleAsset("bankA", "custodianB", []uint64{1_000}, 0)
		a.Liabilities = []uint64{1}
		eval, err := Evaluate(a)
		require.NoError(t, err)
		assert.Equal(t, VerdictOperatorMismatch, eval.Verdict)
	})
}

func TestEvaluate_Overflow(t *testing.T) {
	t.Run("balance overflow is a validation error", func(t *testing.T) {
		_, err := Evaluate(singleAsset("bankA", "bankA", []uint64{math.MaxUint64, 1}, 0))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("cross-asset overflow is a validation error", func(t *testing.T) {
		a := Attestation{
			BankID:          "bankA",
			ReserveOperator: "bankA",
			Assets: []AssetReserve{
				{Asset: "btc", Balances: []uint64{math.MaxUint64}},
				{Asset: "eth", Balances: []uint64{1}},
			},
		}
		_, err := Evaluate(a)
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("liability overflow is a validation error", func(t *testing.T) {
		a := singleAsset("bankA", "bankA", []uint64{1}, 0)
		a.Liabilities = []uint64{math.MaxUint64, math.MaxUint64}
		_, err := Evaluate(a)
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("max value without wrap is accepted", func(t *testing.T) {
		eval, err := Evaluate(singleAsset("bankA", "bankA", []uint64{math.MaxUint64 - 1, 1}, math.MaxUint64))
		require.NoError(t, err)
		assert.Equal(t, VerdictVerified, eval.Verdict)
	})
}

func TestEvaluate_Validation(t *testing.T) {
	tests := []struct {
		name string
		att  Attestation
		msg  string
	}{
		{"missing bank", Attestation{ReserveOperator: "x", Assets: []AssetReserve{{Asset: "btc"}}}, "bank_id is required"},
		{"missing operator", Attestation{BankID: "x", Assets: []AssetReserve{{Asset: "btc"}}}, "reserve_operator is required"},
		{"no assets", Attestation{BankID: "x", ReserveOperator: "x"}, "at least one asset class"},
		{"unnamed asset", Attestation{BankID: "x", ReserveOperator: "x", Assets: []AssetReserve{{}}}, "asset name is required"},
		{
			"duplicate asset",
			Attestation{BankID: "x", ReserveOperator: "x", Assets: []AssetReserve{{Asset: "btc"}, {Asset: "btc"}}},
			"duplicate asset class",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.att)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	a := Attestation{
		BankID:          "bankA",
		ReserveOperator: "bankA",
		Assets: []AssetReserve{
			{Asset: "btc", Balances: []uint64{3, 4}, Threshold: 5},
			{Asset: "eth", Balances: []uint64{9}, Threshold: 10},
		},
	}
	first, err := Evaluate(a)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Evaluate(a)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFingerprint(t *testing.T) {
	base := singleAsset("bankA", "bankA", []uint64{1, 2}, 3)

	t.Run("absent and empty liabilities fingerprint differently", func(t *testing.T) {
		withEmpty := base
		withEmpty.Liabilities = []uint64{}
		a, err := Fingerprint(base)
		require.NoError(t, err)
		b, err := Fingerprint(withEmpty)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("balance order is significant", func(t *testing.T) {
		reordered := singleAsset("bankA", "bankA", []uint64{2, 1}, 3)
		a, err := Fingerprint(base)
		require.NoError(t, err)
		b, err := Fingerprint(reordered)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestVerdict(t *testing.T) {
	assert.True(t, VerdictThresholdFail.IsAdverse())
	assert.True(t, VerdictInsolvent.IsAdverse())
	assert.True(t, VerdictOperatorMismatch.IsAdverse())
	assert.False(t, VerdictVerified.IsAdverse())
	assert.False(t, VerdictSolvent.IsAdverse())
	assert.False(t, Verdict("maybe").IsValid())
}
