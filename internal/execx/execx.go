// Package execx runs external commands and captures their output.
//
// It exists for tools gangway drives as subprocesses, primarily the
// compose CLI: output is buffered rather than streamed, non-zero exits
// become *ExitError values carrying the captured output, and every
// invocation is logged at debug level.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/schmitthub/gangway/internal/logger"
)

// Invoker runs commands with a fixed environment overlay and working
// directory. The zero value runs commands with the process environment
// in the current directory.
type Invoker struct {
	// Env is appended to the process environment for every invocation.
	// Entries are KEY=VALUE.
	Env []string

	// Dir is the working directory; empty means the caller's.
	Dir string
}

// Result holds a finished command's captured output.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Lines splits stdout into trimmed, non-empty lines.
func (r *Result) Lines() []string {
	var lines []string
	for _, l := range strings.Split(string(r.Stdout), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// ExitError reports a command that ran but exited non-zero. The captured
// stderr (or stdout when stderr is empty) rides along so failures
// surface the tool's own diagnostics.
type ExitError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

// Run executes name with args and waits for it to finish. The returned
// error is *ExitError for non-zero exits and the raw exec error when the
// command could not start at all.
func (iv *Invoker) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	return iv.RunWithEnv(ctx, nil, name, args...)
}

// RunWithEnv is Run with extra per-call environment entries layered on
// top of the invoker's.
func (iv *Invoker) RunWithEnv(ctx context.Context, extraEnv []string, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = iv.Dir
	cmd.Env = append(os.Environ(), iv.Env...)
	cmd.Env = append(cmd.Env, extraEnv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	display := name
	if len(args) > 0 {
		display += " " + strings.Join(args, " ")
	}
	start := time.Now()
	err := cmd.Run()
	logger.Debug().
		Str("command", display).
		Dur("elapsed", time.Since(start)).
		Err(err).
		Msg("command finished")

	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			output := strings.TrimSpace(stderr.String())
			if output == "" {
				output = strings.TrimSpace(stdout.String())
			}
			return res, &ExitError{
				Command:  display,
				ExitCode: ee.ExitCode(),
				Output:   output,
			}
		}
		return res, fmt.Errorf("cannot run %q: %w", display, err)
	}
	return res, nil
}
