package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/instruction"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

// CaptureSession brackets one test with packet capture.
type CaptureSession interface {
	Start()
	// Stop joins the capture and returns the file written, or "".
	Stop() string
}

// CaptureFactory creates the capture session for a test.
type CaptureFactory func(testID string) CaptureSession

// Runner executes tests from an instruction file one after another.
type Runner struct {
	File       *instruction.File
	Dispatcher *Dispatcher
	Capture    CaptureFactory
	// DHCP, when set, is stopped after the last test.
	DHCP     *DHCPControl
	Progress ProgressReporter
}

// Run executes the tests named by ids in order. A test that fails or cannot
// be found is reported and the next one runs. Run returns an error only when
// ctx is cancelled.
func (r *Runner) Run(ctx context.Context, ids []string) ([]*Result, error) {
	if r.DHCP != nil {
		defer r.DHCP.Close()
	}

	tests := make([]*instruction.Test, 0, len(ids))
	for _, id := range ids {
		if t, _, ok := r.File.Find(id); ok {
			tests = append(tests, t)
		}
	}
	r.progress(func(p ProgressReporter) { p.SuiteStart(tests) })

	suiteStart := time.Now()
	results := make([]*Result, 0, len(ids))
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := r.runOne(ctx, id, i, len(ids))
		results = append(results, res)
	}

	r.progress(func(p ProgressReporter) { p.SuiteEnd(results, time.Since(suiteStart)) })
	return results, ctx.Err()
}

func (r *Runner) runOne(ctx context.Context, id string, index, total int) *Result {
	test, group, ok := r.File.Find(id)
	if !ok {
		res := &Result{TestID: id, Err: fmt.Errorf("dispatch: test %s: %w", id, util.ErrNotFound)}
		res.finish()
		r.progress(func(p ProgressReporter) { p.TestEnd(res, index, total) })
		return res
	}

	r.progress(func(p ProgressReporter) { p.TestStart(test, group, index, total) })
	log := util.WithTest(id)
	log.Infof("starting test %d/%d", index+1, total)

	var session CaptureSession
	if r.Capture != nil {
		session = r.Capture(id)
		session.Start()
	}

	res := r.Dispatcher.Dispatch(ctx, test.Lines())

	if session != nil {
		res.CapturePath = session.Stop()
	}
	res.TestID = id
	res.Group = group

	log.WithField("status", res.Status).Infof("executed=%d skipped=%d failed=%d", res.Executed, res.Skipped, res.Failed)
	r.progress(func(p ProgressReporter) { p.TestEnd(res, index, total) })
	return res
}

func (r *Runner) progress(fn func(ProgressReporter)) {
	if r.Progress != nil {
		fn(r.Progress)
	}
}

// AnyFailed reports whether any result is not a pass.
func AnyFailed(results []*Result) bool {
	for _, r := range results {
		if r.Status != StatusPassed {
			return true
		}
	}
	return false
}
