package policy

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "reserveguard/pkg/domain-errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, uint32(3), cfg.MaxStrikes)
	assert.Equal(t, uint32(5), cfg.BlacklistThreshold)
	assert.Equal(t, uint64(1000), cfg.PenaltyFee)
	assert.Equal(t, time.Hour, cfg.Suspension())
	assert.Equal(t, -10, cfg.ReputationPenalty)
	assert.False(t, cfg.AllowAppealRereview)
	assert.NoError(t, cfg.Validate())
}

func TestDecode(t *testing.T) {
	t.Run("absent fields keep defaults", func(t *testing.T) {
		cfg, err := Decode(strings.NewReader("max_strikes = 5\nreputation_penalty = -25\n"))
		require.NoError(t, err)
		assert.Equal(t, uint32(5), cfg.MaxStrikes)
		assert.Equal(t, -25, cfg.ReputationPenalty)
		assert.Equal(t, uint64(DefaultPenaltyFee), cfg.PenaltyFee)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		_, err := Decode(strings.NewReader("max_strike = 5\n"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("zero max_strikes is rejected", func(t *testing.T) {
		_, err := Decode(strings.NewReader("max_strikes = 0\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_strikes")
	})

	t.Run("negative max_strikes is rejected", func(t *testing.T) {
		_, err := Decode(strings.NewReader("max_strikes = -1\n"))
		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, found, err := Load(filepath.Join(dir, "absent.toml"))
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("round trips through Encode", func(t *testing.T) {
		want := Default()
		want.MaxStrikes = 7
		want.AllowAppealRereview = true

		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, want))
		path := filepath.Join(dir, "policy.toml")
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

		got, found, err := Load(path)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, want, got)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(dir, "broken.toml")
		require.NoError(t, os.WriteFile(path, []byte("max_strikes = \"three\""), 0o600))
		_, found, err := Load(path)
		require.Error(t, err)
		assert.True(t, found)
	})
}
