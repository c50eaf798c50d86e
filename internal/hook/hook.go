// Package hook runs the external challenge validator process used by the
// authorization controller, translating its exit code into the begin/done/
// failed semantics of the hook ABI.
package hook

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Runner invokes path as a child process for each hook ABI call:
// "<path> <method> <type> <identifier> <token> <key_auth>".
type Runner struct {
	Path string
	Log  zerolog.Logger
}

// New builds a Runner for the hook program at path.
func New(path string, log zerolog.Logger) *Runner {
	return &Runner{Path: path, Log: log}
}

// Begin runs the hook's "begin" method. accept is true iff the child exited
// 0. A non-nil err means the child could not be started or exec'd
// (a negative exit code in the original's fork/exec model) and the whole
// authorization must abort.
func (r *Runner) Begin(challengeType, identifier, token, keyAuth string) (bool, error) {
	code, err := r.run("begin", challengeType, identifier, token, keyAuth)
	if err != nil {
		return false, errors.Wrap(err, "hook begin failed to execute")
	}
	return code == 0, nil
}

// Done runs the hook's "done" cleanup method. Its outcome, including any
// failure to execute, is intentionally not surfaced to the caller.
func (r *Runner) Done(challengeType, identifier, token, keyAuth string) {
	if _, err := r.run("done", challengeType, identifier, token, keyAuth); err != nil {
		r.Log.Debug().Err(err).Msg("hook done call failed to execute")
	}
}

// Failed runs the hook's "failed" cleanup method. Its outcome, including
// any failure to execute, is intentionally not surfaced to the caller.
func (r *Runner) Failed(challengeType, identifier, token, keyAuth string) {
	if _, err := r.run("failed", challengeType, identifier, token, keyAuth); err != nil {
		r.Log.Debug().Err(err).Msg("hook failed call failed to execute")
	}
}

func (r *Runner) run(method, challengeType, identifier, token, keyAuth string) (int, error) {
	cmd := exec.Command(r.Path, method, challengeType, identifier, token, keyAuth)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	r.Log.Debug().
		Str("hook", r.Path).
		Str("method", method).
		Str("type", challengeType).
		Str("identifier", identifier).
		Msg("running hook")

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	// cmd.Start() failed, or the process was killed by a signal before it
	// could exit with a code: both are "fork/exec failure" in the original.
	return -1, err
}
