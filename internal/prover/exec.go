package prover

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os/exec"
	"time"

	"reserveguard/internal/attestation"
	dErrors "reserveguard/pkg/domain-errors"
)

// Exec runs an external guest binary. The attestation is written to stdin as
// JSON; every stdout line becomes a trace line and the process exit status
// becomes the trace exit code.
type Exec struct {
	command []string
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Exec)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Exec) {
		e.logger = logger
	}
}

// WithTimeout bounds a single Prove call. Zero leaves only ctx in charge.
func WithTimeout(d time.Duration) Option {
	return func(e *Exec) {
		e.timeout = d
	}
}

func NewExec(command []string, opts ...Option) (*Exec, error) {
	if len(command) == 0 {
		return nil, dErrors.New(dErrors.CodeInternal, "prover command is required")
	}
	e := &Exec{
		command: append([]string(nil), command...),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Exec) Prove(ctx context.Context, a attestation.Attestation) (*Trace, error) {
	input, err := json.Marshal(a)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode attestation")
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.command[0], e.command[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Grandchildren may keep stdout open after the guest is killed.
	cmd.WaitDelay = time.Second

	start := time.Now()
	runErr := cmd.Run()
	trace := &Trace{Lines: splitLines(stdout.Bytes())}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
	case ctx.Err() != nil:
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeProver, "prover interrupted")
	case errors.As(runErr, &exitErr):
		trace.ExitCode = exitErr.ExitCode()
	default:
		return nil, dErrors.Wrap(runErr, dErrors.CodeProver, "run prover")
	}

	e.logger.DebugContext(ctx, "prover finished",
		"command", e.command[0],
		"exit_code", trace.ExitCode,
		"lines", len(trace.Lines),
		"stderr_bytes", stderr.Len(),
		"duration", time.Since(start),
	)
	return trace, nil
}

func splitLines(b []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(b))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
