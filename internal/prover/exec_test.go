package prover

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "reserveguard/pkg/domain-errors"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestNewExecRequiresCommand(t *testing.T) {
	_, err := NewExec(nil)
	assert.Error(t, err)
}

func TestExecCapturesLinesAndExitCode(t *testing.T) {
	requireShell(t)

	t.Run("successful guest", func(t *testing.T) {
		p, err := NewExec([]string{"sh", "-c", `cat >/dev/null; echo "GUEST: start"; echo "PROOF_RESULT:"; echo 1`})
		require.NoError(t, err)

		trace, err := p.Prove(context.Background(), thresholdAttestation(60, 50))
		require.NoError(t, err)
		assert.Equal(t, []string{"GUEST: start", "PROOF_RESULT:", "1"}, trace.Lines)
		assert.Zero(t, trace.ExitCode)
	})

	t.Run("attestation is sent on stdin", func(t *testing.T) {
		p, err := NewExec([]string{"sh", "-c", "cat"})
		require.NoError(t, err)

		trace, err := p.Prove(context.Background(), thresholdAttestation(7))
		require.NoError(t, err)
		require.Len(t, trace.Lines, 1)
		assert.Contains(t, trace.Lines[0], `"bank_id":"bankA"`)
	})

	t.Run("guest failure becomes the exit code", func(t *testing.T) {
		p, err := NewExec([]string{"sh", "-c", "cat >/dev/null; echo boom; exit 3"})
		require.NoError(t, err)

		trace, err := p.Prove(context.Background(), thresholdAttestation(1))
		require.NoError(t, err)
		assert.Equal(t, 3, trace.ExitCode)
		assert.Equal(t, []string{"boom"}, trace.Lines)
	})
}

func TestExecMissingBinaryIsProverError(t *testing.T) {
	p, err := NewExec([]string{"/nonexistent/reserveguard-guest"})
	require.NoError(t, err)

	_, err = p.Prove(context.Background(), thresholdAttestation(1))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeProver))
}

func TestExecTimeout(t *testing.T) {
	requireShell(t)
	p, err := NewExec([]string{"sh", "-c", "sleep 5"}, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = p.Prove(context.Background(), thresholdAttestation(1))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeProver))
}
