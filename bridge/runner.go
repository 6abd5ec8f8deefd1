// Package bridge runs the external device-bridge and transcoding programs and
// turns their text output into typed records.
package bridge

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/nrtkbb/adbfm/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout applies when neither the command nor the runner sets one.
	DefaultTimeout = 30 * time.Second
	// waitDelay bounds how long Wait keeps draining pipes after the process is gone.
	waitDelay = 2 * time.Second
)

// Command is one invocation of the runner's program.
type Command struct {
	Args    []string
	Device  string        // when set, "-s <Device>" goes right after the program name
	Timeout time.Duration // zero means the runner default
}

// Result is the captured outcome of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes bridge commands. Implementations must be safe for concurrent use.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs Program as a child process.
type ExecRunner struct {
	Program        string
	DefaultTimeout time.Duration
	logger         *zap.Logger
}

func NewExecRunner(program string, timeout time.Duration, logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{
		Program:        program,
		DefaultTimeout: timeout,
		logger:         logger.With(zap.String("program", filepath.Base(program))),
	}
}

// Argv returns the full argument vector, program first.
func (r *ExecRunner) Argv(cmd Command) []string {
	argv := make([]string, 0, len(cmd.Args)+3)
	argv = append(argv, r.Program)
	if cmd.Device != "" {
		argv = append(argv, "-s", cmd.Device)
	}
	return append(argv, cmd.Args...)
}

func (r *ExecRunner) timeoutFor(cmd Command) time.Duration {
	switch {
	case cmd.Timeout > 0:
		return cmd.Timeout
	case r.DefaultTimeout > 0:
		return r.DefaultTimeout
	default:
		return DefaultTimeout
	}
}

// Run executes cmd and waits for it. A non-zero exit, a start failure, a
// timeout or a cancelled ctx all come back as *ProcessError carrying whatever
// output was collected.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	argv := r.Argv(cmd)
	timeout := r.timeoutFor(cmd)
	program := filepath.Base(r.Program)
	sub := subcommandLabel(cmd.Args)

	r.logger.Info("running command",
		zap.String("command", strings.Join(argv, " ")),
		zap.String("device", cmd.Device),
		zap.Duration("timeout", timeout),
	)

	ctx, span := otel.Tracer("bridge").Start(ctx, "bridge.run", trace.WithAttributes(
		attribute.String("bridge.program", program),
		attribute.String("bridge.subcommand", sub),
		attribute.String("bridge.device", cmd.Device),
		attribute.StringSlice("bridge.argv", argv),
	))
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = waitDelay
	prepareProcess(c)

	start := time.Now()
	runErr := c.Run()
	elapsed := time.Since(start)

	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
	}
	if c.ProcessState != nil {
		result.ExitCode = c.ProcessState.ExitCode()
	}
	span.SetAttributes(attribute.Int("bridge.exit_code", result.ExitCode))

	if runErr != nil && errors.Is(runErr, exec.ErrWaitDelay) && c.ProcessState != nil && c.ProcessState.Success() {
		runErr = nil
	}

	if runErr == nil {
		metrics.RecordBridgeCommand(program, sub, "ok", elapsed)
		r.logger.Debug("command finished",
			zap.String("subcommand", sub),
			zap.Duration("elapsed", elapsed),
			zap.Int("stdout_bytes", len(result.Stdout)),
		)
		return result, nil
	}

	perr := &ProcessError{
		Argv:     argv,
		Device:   cmd.Device,
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		Err:      runErr,
	}
	var exitErr *exec.ExitError
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		perr.Kind = KindTimeout
		perr.Timeout = timeout
	case ctx.Err() != nil:
		perr.Kind = KindCanceled
		perr.Err = ctx.Err()
	case errors.As(runErr, &exitErr):
		perr.Kind = KindExit
	default:
		perr.Kind = KindStart
	}

	metrics.RecordBridgeCommand(program, sub, string(perr.Kind), elapsed)
	span.RecordError(perr)
	span.SetStatus(codes.Error, string(perr.Kind))
	r.logger.Warn("command failed",
		zap.String("command", strings.Join(argv, " ")),
		zap.String("kind", string(perr.Kind)),
		zap.Int("exit_code", perr.ExitCode),
		zap.String("stderr", strings.TrimSpace(perr.Stderr)),
		zap.Duration("elapsed", elapsed),
	)
	return result, perr
}

// subcommandLabel keeps metric labels bounded: "devices", "pull", "shell ls", ...
func subcommandLabel(args []string) string {
	if len(args) == 0 {
		return "none"
	}
	if strings.HasPrefix(args[0], "-") {
		return "run"
	}
	if (args[0] == "shell" || args[0] == "exec-out") && len(args) > 1 {
		return args[0] + " " + args[1]
	}
	return args[0]
}

// ShellQuote wraps s in single quotes for the device shell. adb joins the
// arguments after "shell" with spaces and hands them to sh, so any path or
// pattern that reaches the device must go through here.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
