// Package schedule repeats a command on a fixed cadence for a bounded time.
package schedule

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/cli"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

// tickInterval is how often a wait reports progress.
const tickInterval = time.Second

// Spec is a parsed event_timed instruction.
type Spec struct {
	Timeout time.Duration
	Period  time.Duration
	Command string
}

// Cycles is the number of invocations: ceil(Timeout / Period).
func (s Spec) Cycles() int {
	if s.Period <= 0 {
		return 0
	}
	return int((s.Timeout + s.Period - 1) / s.Period)
}

// ParseSpec parses the tokens that follow "event_timed":
// <timeout-seconds> <period-seconds> <command...>.
func ParseSpec(tokens []string) (Spec, error) {
	const name = "event_timed"
	if len(tokens) < 2 {
		return Spec{}, util.NewArgumentError(name, "usage: event_timed <timeout> <period> <command...>")
	}
	timeout, err := parseSeconds(tokens[0])
	if err != nil {
		return Spec{}, util.NewArgumentError(name, "timeout %q: %v", tokens[0], err)
	}
	period, err := parseSeconds(tokens[1])
	if err != nil {
		return Spec{}, util.NewArgumentError(name, "period %q: %v", tokens[1], err)
	}
	if timeout < period {
		return Spec{}, util.NewArgumentError(name, "timeout %s is shorter than period %s", timeout, period)
	}
	if len(tokens) < 3 {
		return Spec{}, util.NewArgumentError(name, "no command to repeat")
	}
	return Spec{
		Timeout: timeout,
		Period:  period,
		Command: strings.Join(tokens[2:], " "),
	}, nil
}

func parseSeconds(tok string) (time.Duration, error) {
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if f <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return time.Duration(f * float64(time.Second)), nil
}

// Invoker runs one inner command unattended.
type Invoker func(ctx context.Context, line string) error

// Scheduler drives the timed loop.
type Scheduler struct {
	// Sleep blocks for one period. Defaults to Wait with a progress bar.
	Sleep func(ctx context.Context, d time.Duration) error
	Out   io.Writer
}

// New creates a scheduler that reports progress to stdout.
func New() *Scheduler {
	s := &Scheduler{Out: os.Stdout}
	s.Sleep = s.waitWithProgress
	return s
}

// Run performs spec.Cycles() iterations of sleep-then-invoke. The first
// failing invocation aborts the loop. It returns the number of invocations
// that completed successfully.
func (s *Scheduler) Run(ctx context.Context, spec Spec, invoke Invoker) (int, error) {
	cycles := spec.Cycles()
	log := util.WithInstruction(spec.Command)
	done := 0

	for i := 0; i < cycles; i++ {
		if err := s.Sleep(ctx, spec.Period); err != nil {
			return done, err
		}
		fmt.Fprintf(s.Out, "  [event %d/%d] %s\n", i+1, cycles, spec.Command)
		if err := invoke(ctx, spec.Command); err != nil {
			log.Errorf("timed event aborted at cycle %d/%d: %v", i+1, cycles, err)
			return done, fmt.Errorf("schedule: cycle %d/%d: %w", i+1, cycles, err)
		}
		done++
	}
	return done, nil
}

func (s *Scheduler) waitWithProgress(ctx context.Context, d time.Duration) error {
	bar := cli.NewProgressBar(s.Out, d)
	if err := Wait(ctx, d, bar.Update); err != nil {
		return err
	}
	bar.Finish()
	return nil
}

// Wait blocks until d has elapsed on the monotonic clock or ctx is done,
// calling tick with the elapsed time about once a second.
func Wait(ctx context.Context, d time.Duration, tick func(elapsed time.Duration)) error {
	start := time.Now()
	timer := time.NewTimer(d)
	defer timer.Stop()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case <-ticker.C:
			if tick != nil {
				tick(time.Since(start))
			}
		}
	}
}
