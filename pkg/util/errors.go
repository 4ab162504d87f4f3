// Package util provides logging, the shared error taxonomy, and IPv4 helpers.
package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes an operator can observe.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrNotFound          = errors.New("not found")
	ErrExternalCommand   = errors.New("external command failed")
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrUserDeclined      = errors.New("declined by operator")
	ErrAmbiguousMode     = errors.New("ambiguous run mode")
)

// NotFoundError reports a configured executable that does not exist.
// It matches both ErrNotFound and ErrConfiguration.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("executable not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() []error {
	return []error{ErrNotFound, ErrConfiguration}
}

// ArgumentError reports malformed instruction arguments.
type ArgumentError struct {
	Instruction string
	Reason      string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Instruction, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrConfiguration
}

// NewArgumentError creates an argument error
func NewArgumentError(instruction, format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{
		Instruction: instruction,
		Reason:      fmt.Sprintf(format, args...),
	}
}

// ExitError reports an external program that terminated with a non-zero status.
type ExitError struct {
	Program string
	Status  int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Program, e.Status)
}

func (e *ExitError) Unwrap() error {
	return ErrExternalCommand
}

// SpawnError reports an external program that could not be started.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Program, e.Err)
}

func (e *SpawnError) Unwrap() []error {
	return []error{ErrExternalCommand, e.Err}
}

// InstructionError ties a failure to the instruction text that produced it,
// so the operator can resume the step by hand.
type InstructionError struct {
	Line string
	Err  error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %q: %v", e.Line, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}
