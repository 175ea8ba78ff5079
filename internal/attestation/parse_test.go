package attestation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "reserveguard/pkg/domain-errors"
)

func TestParseAmounts(t *testing.T) {
	t.Run("parses comma separated values", func(t *testing.T) {
		got, err := ParseAmounts("40, 50,10")
		require.NoError(t, err)
		assert.Equal(t, []uint64{40, 50, 10}, got)
	})

	t.Run("empty input is an empty non-nil list", func(t *testing.T) {
		got, err := ParseAmounts("  ")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	for _, bad := range []string{"40,abc", "-1", "1.5", "1,,2", "99999999999999999999"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseAmounts(bad)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
		})
	}
}

func TestParseAssetSpec(t *testing.T) {
	t.Run("with threshold", func(t *testing.T) {
		got, err := ParseAssetSpec("btc=40,50:100")
		require.NoError(t, err)
		assert.Equal(t, AssetReserve{Asset: "btc", Balances: []uint64{40, 50}, Threshold: 100}, got)
	})

	t.Run("without threshold", func(t *testing.T) {
		got, err := ParseAssetSpec("eth=7")
		require.NoError(t, err)
		assert.Equal(t, AssetReserve{Asset: "eth", Balances: []uint64{7}}, got)
	})

	for _, bad := range []string{"btc", "=1,2", "btc=1:x", "btc=x:1"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseAssetSpec(bad)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("decodes a solvency claim", func(t *testing.T) {
		doc := `{"bank_id":"bankA","reserve_operator":"bankA",
			"assets":[{"asset":"btc","balances":[60],"threshold":0}],
			"liabilities":[30,20]}`
		a, err := Decode(strings.NewReader(doc))
		require.NoError(t, err)
		assert.True(t, a.HasLiabilities())
		assert.Equal(t, []uint64{30, 20}, a.Liabilities)
	})

	t.Run("missing liabilities selects threshold mode", func(t *testing.T) {
		a, err := Decode(strings.NewReader(`{"bank_id":"b","reserve_operator":"b","assets":[{"asset":"btc","balances":[1],"threshold":1}]}`))
		require.NoError(t, err)
		assert.False(t, a.HasLiabilities())
	})

	t.Run("allows trailing whitespace", func(t *testing.T) {
		_, err := Decode(strings.NewReader("{\"bank_id\":\"b\"}\n\t \n"))
		require.NoError(t, err)
	})

	for name, doc := range map[string]string{
		"negative balance": `{"bank_id":"b","reserve_operator":"b","assets":[{"asset":"btc","balances":[-1]}]}`,
		"string balance":   `{"bank_id":"b","reserve_operator":"b","assets":[{"asset":"btc","balances":["1"]}]}`,
		"unknown field":    `{"bank_id":"b","reserve_operator":"b","assets":[],"extra":true}`,
		"trailing data":    `{"bank_id":"b"} {"bank_id":"c"}`,
		"trailing brace":   `{"bank_id":"b"}}`,
		"trailing bracket": `{"bank_id":"b"}]`,
		"trailing garbage": `{"bank_id":"b"} x`,
	} {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
		})
	}
}
