// Package assertscript spawns a child process per reply and interprets its
// exit status as the test's pass/fail verdict.
package assertscript

import (
	"os/exec"
	"path/filepath"
	"unicode/utf8"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/apperror"
)

// Runner is shared across run instances of one suite; it is stateless
// beyond the interpreter path and the suite name used to resolve script
// paths.
type Runner struct {
	pythonBin string
	suiteName string
}

// New builds a Runner bound to one suite. pythonBin must be non-empty;
// construction fails otherwise (the process-wide PYTHON_3_BIN variable is
// read once, at bootstrap, and passed in here).
func New(pythonBin, suiteName string) (*Runner, error) {
	if pythonBin == "" {
		return nil, apperror.New(apperror.InternalFailure, "PYTHON_3_BIN is not set")
	}

	return &Runner{pythonBin: pythonBin, suiteName: suiteName}, nil
}

// scriptPath resolves script relative to the suite's integration test
// directory.
func (r *Runner) scriptPath(script string) string {
	return filepath.Join(".", "integration_tests", r.suiteName, script)
}

// RunScript decodes body as UTF-8, spawns the interpreter with the
// resolved script path and the decoded text as positional arguments, and
// waits for it to exit. Exit status 0 is a pass; any other status is a
// TestAssertFailure; a non-UTF-8 body or a spawn/wait error is an
// InternalFailure.
func (r *Runner) RunScript(script string, body []byte) error {
	if !utf8.Valid(body) {
		return apperror.New(apperror.InternalFailure, "reply body is not valid UTF-8")
	}

	path := r.scriptPath(script)

	cmd := exec.Command(r.pythonBin, path, string(body))

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return apperror.Newf(apperror.TestAssertFailure, "assertion script %q failed: %s", path, exitErr)
	}

	return apperror.Wrapf(apperror.InternalFailure, err, "failed to run assertion script %q", path)
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}

	return false
}
