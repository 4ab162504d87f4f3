package dispatch

import (
	"time"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/instruction"
)

// Status is the outcome of one test.
type Status string

const (
	StatusPassed Status = "PASS"
	StatusFailed Status = "FAIL"
	StatusError  Status = "ERROR"
)

// Result summarises one dispatched instruction list.
type Result struct {
	TestID string
	Group  string
	Mode   instruction.RunMode
	Status Status

	Executed int
	Skipped  int
	Failed   int
	// Manual counts lines the dispatcher cannot execute and left to the
	// operator.
	Manual int

	// Failures holds one *util.InstructionError per failed instruction.
	Failures []error
	// Err is set when the list could not be dispatched at all.
	Err error

	CapturePath string
	Duration    time.Duration
}

func (r *Result) finish() {
	switch {
	case r.Err != nil:
		r.Status = StatusError
	case r.Failed > 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusPassed
	}
}
