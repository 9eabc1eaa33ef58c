// Package proc runs the external programs walland drives: wallpaper backends,
// their daemons and the image converter.
package proc

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"syscall"
)

// Result is the outcome of a process that ran to completion.
type Result struct {
	Output   []byte
	ExitCode int
}

// Success reports whether the process exited with status 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// String returns the trimmed output.
func (r Result) String() string {
	return strings.TrimSpace(string(r.Output))
}

// Runner starts external programs. Every backend and conversion step goes
// through a Runner so tests can substitute a recording fake.
type Runner interface {
	// LookPath reports where name is installed on $PATH.
	LookPath(name string) (string, error)
	// Run waits for name to exit and captures its stdout. A non-zero exit is
	// reported through Result.ExitCode, not the error.
	Run(ctx context.Context, name string, args ...string) (Result, error)
	// Start spawns name in its own session and does not wait for it.
	Start(name string, args ...string) error
}

// ExecRunner is the os/exec Runner.
type ExecRunner struct{}

// detached puts spawned daemons in a new session so they outlive walland.
var detached = &syscall.SysProcAttr{Setsid: true}

func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Keep stderr so callers can report why the tool failed
		return Result{Output: append(out, stderr.Bytes()...), ExitCode: exitErr.ExitCode()}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Output: out}, nil
}

func (ExecRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = detached
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
