// Package toolchain launches the external compilers, package managers and
// interpreters the runner delegates to.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ErrProcess is the sentinel wrapped by every *ProcessError.
var ErrProcess = errors.New("process failed")

// exitLaunchFailure is reported when the process never started.
const exitLaunchFailure = -1

// Command describes one subprocess invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty inherits the caller's.
	Dir string
	// Env is appended to the current process environment.
	Env []string
	// Stream relays stdio to the executor's streams instead of capturing output.
	Stream bool
}

// String renders the command line for messages.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result is the outcome of a finished subprocess. Stdout and Stderr are empty
// for streamed commands.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// ProcessError reports a subprocess that failed to launch or exited non-zero.
type ProcessError struct {
	Err      error
	Command  string
	Stderr   string
	ExitCode int
}

func (e *ProcessError) Error() string {
	var msg string

	if e.ExitCode == exitLaunchFailure {
		msg = fmt.Sprintf("%s: %s: %v", ErrProcess, e.Command, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s exited with status %d", ErrProcess, e.Command, e.ExitCode)
	}

	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}

	return msg
}

// Unwrap exposes ErrProcess and the underlying cause.
func (e *ProcessError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProcess}
	}

	return []error{ErrProcess, e.Err}
}

// Executor runs subprocesses. Implementations block until the child exits.
type Executor interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// OSExecutor runs commands with os/exec.
type OSExecutor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewOSExecutor returns an executor bound to the process's standard streams.
func NewOSExecutor() *OSExecutor {
	return &OSExecutor{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run starts cmd and waits for it. A launch failure or non-zero exit returns
// a *ProcessError alongside whatever output was captured.
func (x *OSExecutor) Run(ctx context.Context, cmd Command) (Result, error) {
	proc := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	proc.Dir = cmd.Dir
	proc.Stdin = x.Stdin

	if len(cmd.Env) > 0 {
		proc.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer

	if cmd.Stream {
		proc.Stdout = x.Stdout
		proc.Stderr = x.Stderr
	} else {
		proc.Stdout = &stdout
		proc.Stderr = &stderr
	}

	runErr := proc.Run()

	result := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: proc.ProcessState.ExitCode(),
	}

	if runErr == nil {
		return result, nil
	}

	procErr := &ProcessError{
		Err:      runErr,
		Command:  cmd.String(),
		Stderr:   stderr.String(),
		ExitCode: exitLaunchFailure,
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		procErr.ExitCode = exitErr.ExitCode()
	}

	result.ExitCode = procErr.ExitCode

	return result, procErr
}
