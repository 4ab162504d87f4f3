package dispatch

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/cli"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/instruction"
)

// ProgressReporter receives lifecycle callbacks during a test run.
type ProgressReporter interface {
	SuiteStart(tests []*instruction.Test)
	TestStart(test *instruction.Test, group string, index, total int)
	TestEnd(result *Result, index, total int)
	SuiteEnd(results []*Result, duration time.Duration)
}

// ConsoleProgress is an append-only terminal reporter.
type ConsoleProgress struct {
	W io.Writer

	dotWidth int
}

// NewConsoleProgress creates a ConsoleProgress writing to stdout.
func NewConsoleProgress() *ConsoleProgress {
	return &ConsoleProgress{W: os.Stdout}
}

func (p *ConsoleProgress) SuiteStart(tests []*instruction.Test) {
	maxName := 0
	for _, t := range tests {
		if len(t.ID) > maxName {
			maxName = len(t.ID)
		}
	}
	p.dotWidth = maxName + 6
}

func (p *ConsoleProgress) TestStart(test *instruction.Test, group string, index, total int) {
	fmt.Fprintf(p.W, "\n%s\n", cli.ThickSeparator())
	fmt.Fprintf(p.W, "[%d/%d] Test Group: %s\n", index+1, total, group)
	fmt.Fprintf(p.W, "Test ID: %s\n", cli.Bold(test.ID))
	if test.Description != "" {
		fmt.Fprintf(p.W, "Description: %s\n", test.Description)
	}
	if test.PassCondition != "" {
		fmt.Fprintf(p.W, "Pass Condition: %s\n", test.PassCondition)
	}
	fmt.Fprintln(p.W, "Instructions:")
	for _, line := range test.Instructions {
		fmt.Fprintf(p.W, "  - %s\n", line)
	}
	fmt.Fprintf(p.W, "%s\n", cli.ThickSeparator())
}

func (p *ConsoleProgress) TestEnd(result *Result, index, total int) {
	tag := fmt.Sprintf("[%d/%d]", index+1, total)
	width := p.dotWidth
	if width < len(result.TestID)+6 {
		width = len(result.TestID) + 6
	}
	padded := cli.DotPad(result.TestID, width)

	switch result.Status {
	case StatusPassed:
		fmt.Fprintf(p.W, "\n  %-7s %s %s  (%s)\n", tag, padded, cli.Green("PASS"), p.counts(result))
	case StatusFailed:
		fmt.Fprintf(p.W, "\n  %-7s %s %s  (%s)\n", tag, padded, cli.Red("FAIL"), p.counts(result))
	case StatusError:
		fmt.Fprintf(p.W, "\n  %-7s %s %s\n", tag, padded, cli.Red("ERROR"))
		if result.Err != nil {
			fmt.Fprintf(p.W, "          %s\n", cli.Dim(result.Err.Error()))
		}
	}
}

func (p *ConsoleProgress) SuiteEnd(results []*Result, duration time.Duration) {
	passed, failed, errored := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusError:
			errored++
		}
	}

	fmt.Fprintf(p.W, "\n---\n")
	fmt.Fprintf(p.W, "vtg: %d tests", len(results))

	parts := []string{}
	if passed > 0 {
		parts = append(parts, cli.Green(fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		parts = append(parts, cli.Red(fmt.Sprintf("%d failed", failed)))
	}
	if errored > 0 {
		parts = append(parts, cli.Red(fmt.Sprintf("%d errored", errored)))
	}
	if len(parts) > 0 {
		fmt.Fprintf(p.W, ": %s", strings.Join(parts, ", "))
	}
	fmt.Fprintf(p.W, "  (%s)\n", formatDuration(duration))

	if failed+errored == 0 {
		return
	}
	fmt.Fprintf(p.W, "\n  FAILED:\n")
	for i, r := range results {
		if r.Status == StatusPassed {
			continue
		}
		fmt.Fprintf(p.W, "    [%d]  %s\n", i+1, r.TestID)
		if r.Err != nil {
			fmt.Fprintf(p.W, "         %s\n", r.Err)
			continue
		}
		for _, f := range r.Failures {
			fmt.Fprintf(p.W, "         %s\n", f)
		}
	}
}

func (p *ConsoleProgress) counts(r *Result) string {
	s := fmt.Sprintf("%s, %d executed, %d skipped, %d failed", r.Mode, r.Executed, r.Skipped, r.Failed)
	if r.Manual > 0 {
		s += fmt.Sprintf(", %d manual", r.Manual)
	}
	return s + ", " + formatDuration(r.Duration)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
