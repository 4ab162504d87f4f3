package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Path: "./ccc.exe"}

	if !strings.Contains(err.Error(), "./ccc.exe") {
		t.Errorf("Error message should contain path: %s", err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Error("NotFoundError should match ErrConfiguration")
	}
	if errors.Is(err, ErrExternalCommand) {
		t.Error("NotFoundError should not match ErrExternalCommand")
	}
}

func TestArgumentError(t *testing.T) {
	err := NewArgumentError("event_timed", "timeout %d < period %d", 2, 5)

	msg := err.Error()
	if !strings.Contains(msg, "event_timed") || !strings.Contains(msg, "timeout 2 < period 5") {
		t.Errorf("unexpected message: %s", msg)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Error("ArgumentError should unwrap to ErrConfiguration")
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Program: "./ccc.exe", Status: 3}

	if !strings.Contains(err.Error(), "status 3") {
		t.Errorf("Error message should contain status: %s", err)
	}
	if !errors.Is(err, ErrExternalCommand) {
		t.Error("ExitError should unwrap to ErrExternalCommand")
	}

	var exitErr *ExitError
	wrapped := fmt.Errorf("outer: %w", err)
	if !errors.As(wrapped, &exitErr) || exitErr.Status != 3 {
		t.Errorf("errors.As should recover status, got %+v", exitErr)
	}
}

func TestSpawnError(t *testing.T) {
	cause := errors.New("permission denied")
	err := &SpawnError{Program: "./ccc.exe", Err: cause}

	if !errors.Is(err, ErrExternalCommand) {
		t.Error("SpawnError should match ErrExternalCommand")
	}
	if !errors.Is(err, cause) {
		t.Error("SpawnError should match its cause")
	}
}

func TestInstructionError(t *testing.T) {
	err := &InstructionError{
		Line: "ccc set mode 2",
		Err:  &ExitError{Program: "./ccc.exe", Status: 1},
	}

	if !strings.Contains(err.Error(), "ccc set mode 2") {
		t.Errorf("Error message should contain instruction text: %s", err)
	}
	if !errors.Is(err, ErrExternalCommand) {
		t.Error("InstructionError should pass through the wrapped sentinel")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrConfiguration,
		ErrNotFound,
		ErrExternalCommand,
		ErrDeviceUnavailable,
		ErrProtocolViolation,
		ErrUserDeclined,
		ErrAmbiguousMode,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v == %v", err1, err2)
			}
		}
	}
}
