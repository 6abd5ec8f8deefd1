package bridge

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTimeout matches (via errors.Is) any ProcessError whose command outlived
// its timeout.
var ErrTimeout = errors.New("bridge: command timed out")

type ErrorKind string

const (
	KindStart    ErrorKind = "start"    // the program could not be started
	KindExit     ErrorKind = "exit"     // non-zero exit status
	KindTimeout  ErrorKind = "timeout"  // killed after the timeout elapsed
	KindCanceled ErrorKind = "canceled" // the caller's context ended first
)

// ProcessError describes a failed command. Stdout and Stderr hold whatever the
// process wrote before it ended.
type ProcessError struct {
	Kind     ErrorKind
	Argv     []string
	Device   string
	ExitCode int
	Stdout   string
	Stderr   string
	Timeout  time.Duration
	Err      error
}

func (e *ProcessError) Error() string {
	line := strings.Join(e.Argv, " ")
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("%s: timed out after %s", line, e.Timeout)
	case KindCanceled:
		return fmt.Sprintf("%s: canceled: %v", line, e.Err)
	case KindExit:
		if d := e.Diagnostic(); d != "" {
			return fmt.Sprintf("%s: exit status %d: %s", line, e.ExitCode, d)
		}
		return fmt.Sprintf("%s: exit status %d", line, e.ExitCode)
	default:
		return fmt.Sprintf("%s: failed to start: %v", line, e.Err)
	}
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

func (e *ProcessError) Is(target error) bool {
	return target == ErrTimeout && e.Kind == KindTimeout
}

// Diagnostic returns the most useful text the process produced: stderr when
// present, otherwise stdout.
func (e *ProcessError) Diagnostic() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(e.Stdout)
}

// IsExitCode reports whether err is a ProcessError for a process that exited
// with the given status.
func IsExitCode(err error, code int) bool {
	var perr *ProcessError
	return errors.As(err, &perr) && perr.Kind == KindExit && perr.ExitCode == code
}
