package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Command is one subprocess invocation.
type Command struct {
	Binary  string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Binary}, c.Args...), " ")
}

// Output is what a finished subprocess produced.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Killed   bool
	Duration time.Duration
}

// Runner executes commands. Run returns an error only when the process could
// not be started or did not run to an exit status (spawn failure, timeout,
// cancellation); a non-zero exit is reported through Output.ExitCode.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Output, error)
}

// DefaultTimeout bounds a call when neither the command nor the runner sets one.
const DefaultTimeout = 30 * time.Second

// ExecRunner runs commands on the host with os/exec.
type ExecRunner struct {
	// Timeout applies when Command.Timeout is zero. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Run starts cmd, waits for it and captures its output. The process is killed
// when the timeout expires or ctx is canceled.
func (r ExecRunner) Run(ctx context.Context, cmd Command) (Output, error) {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = r.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(execCtx, cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir
	// Do not wait forever on pipes held open by orphaned children.
	c.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	out := Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		out.ExitCode = c.ProcessState.ExitCode()
	}

	if err == nil {
		return out, nil
	}
	if execCtx.Err() != nil {
		out.Killed = true
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return out, fmt.Errorf("timeout after %s: %w", timeout, execCtx.Err())
		}
		return out, execCtx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, nil
	}
	return out, err
}
