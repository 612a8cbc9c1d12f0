package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrProcessFailure is wrapped by every ProcessError.
	ErrProcessFailure = errors.New("bridge: process failure")

	// ErrUnknownAction is returned for service actions outside start, stop,
	// restart and status.
	ErrUnknownAction = errors.New("bridge: unknown service action")

	// ErrDomain is wrapped by every DomainError.
	ErrDomain = errors.New("bridge: domain error")
)

// ProcessError describes a subprocess that could not be spawned, exited
// non-zero or was killed.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Killed   bool
	Cause    error
}

func (e *ProcessError) Error() string {
	switch {
	case e.Killed:
		return fmt.Sprintf("bridge: process killed: %v", e.Cause)
	case e.Stderr != "":
		return fmt.Sprintf("bridge: process exited %d: %s", e.ExitCode, e.Stderr)
	case e.Cause != nil:
		return fmt.Sprintf("bridge: process failed: %v", e.Cause)
	default:
		return fmt.Sprintf("bridge: process exited %d", e.ExitCode)
	}
}

func (e *ProcessError) Is(target error) bool {
	return target == ErrProcessFailure
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// DomainError carries the "error" field reported by the bridged tool.
type DomainError struct {
	Entity  string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("bridge: %s reported: %s", e.Entity, e.Message)
}

func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}
