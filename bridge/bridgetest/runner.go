// Package bridgetest provides a scripted bridge.Runner for tests.
package bridgetest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/nrtkbb/adbfm/bridge"
)

// Response is what the fake returns for a matching command.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err, when set, is returned as is (use it for timeouts and start failures).
	Err error
	// Effect runs before the response is returned, e.g. to create a pulled file.
	Effect func(cmd bridge.Command) error
}

// Runner answers commands from a table keyed by argument prefix. The longest
// matching prefix wins. Unknown commands fail with a start error.
type Runner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []bridge.Command
}

func NewRunner() *Runner {
	return &Runner{responses: make(map[string]Response)}
}

// On registers resp for every command whose space-joined args start with prefix.
func (r *Runner) On(prefix string, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[prefix] = resp
	return r
}

func (r *Runner) Run(ctx context.Context, cmd bridge.Command) (bridge.Result, error) {
	line := strings.Join(cmd.Args, " ")

	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	var (
		resp    Response
		matched string
		found   bool
	)
	for prefix, candidate := range r.responses {
		if strings.HasPrefix(line, prefix) && (!found || len(prefix) > len(matched)) {
			resp, matched, found = candidate, prefix, true
		}
	}
	r.mu.Unlock()

	argv := append([]string{"adb"}, cmd.Args...)
	if !found {
		return bridge.Result{ExitCode: -1}, &bridge.ProcessError{
			Kind:     bridge.KindStart,
			Argv:     argv,
			Device:   cmd.Device,
			ExitCode: -1,
			Err:      errors.New("bridgetest: no response for " + line),
		}
	}
	if err := ctx.Err(); err != nil {
		return bridge.Result{ExitCode: -1}, &bridge.ProcessError{Kind: bridge.KindCanceled, Argv: argv, Device: cmd.Device, ExitCode: -1, Err: err}
	}
	if resp.Effect != nil {
		if err := resp.Effect(cmd); err != nil {
			return bridge.Result{ExitCode: -1}, err
		}
	}

	result := bridge.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.Err != nil {
		return result, resp.Err
	}
	if resp.ExitCode != 0 {
		return result, &bridge.ProcessError{
			Kind:     bridge.KindExit,
			Argv:     argv,
			Device:   cmd.Device,
			ExitCode: resp.ExitCode,
			Stdout:   resp.Stdout,
			Stderr:   resp.Stderr,
		}
	}
	return result, nil
}

// Calls returns a copy of every command seen so far.
func (r *Runner) Calls() []bridge.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bridge.Command(nil), r.calls...)
}

// CallCount returns how many commands started with prefix.
func (r *Runner) CallCount(prefix string) int {
	n := 0
	for _, c := range r.Calls() {
		if strings.HasPrefix(strings.Join(c.Args, " "), prefix) {
			n++
		}
	}
	return n
}

// Timeout builds the error a real runner returns when a command times out.
func Timeout(args ...string) error {
	return &bridge.ProcessError{Kind: bridge.KindTimeout, Argv: append([]string{"adb"}, args...), ExitCode: -1}
}
