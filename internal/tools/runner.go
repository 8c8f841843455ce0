package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Command is one external program invocation.
type Command struct {
	// Name is the program to run, looked up in PATH when it has no separator.
	Name string
	// Args are passed verbatim.
	Args []string
	// Dir is the working directory (empty = current).
	Dir string
	// Stdout overrides the runner's stdout when set.
	Stdout io.Writer
}

// String renders the command for log messages.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes commands synchronously.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// ErrTimeout is reported when a command exceeds the runner's timeout.
var ErrTimeout = errors.New("timed out")

// ExitError describes a failed invocation.
type ExitError struct {
	Command Command
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("running %q: %v", e.Command.String(), e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Timeout limits each command (0 = no limit).
	Timeout time.Duration
	// Stdout and Stderr receive the tool's output. Nil means the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts cmd and waits for it to exit.
func (r ExecRunner) Run(ctx context.Context, cmd Command) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...) //nolint:gosec // Arguments are an explicit list
	c.Dir = cmd.Dir

	c.Stdout = r.Stdout
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}

	if cmd.Stdout != nil {
		c.Stdout = cmd.Stdout
	}

	c.Stderr = r.Stderr
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}

	if err := c.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %v", ErrTimeout, r.Timeout)
		}

		return &ExitError{Command: cmd, Err: err}
	}

	return nil
}
