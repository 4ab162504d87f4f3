// Package dispatch executes classified instruction lists and brackets each
// test with packet capture.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/cli"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/instruction"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/schedule"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/settings"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

// CommandRunner executes command-template instructions.
type CommandRunner interface {
	Run(ctx context.Context, line string) error
	FactoryInit(ctx context.Context, sku int, image string) error
}

// TimedRunner drives an event_timed loop.
type TimedRunner interface {
	Run(ctx context.Context, spec schedule.Spec, invoke schedule.Invoker) (int, error)
}

// Env is everything a dispatcher acts on.
type Env struct {
	Commands    CommandRunner
	Scheduler   TimedRunner
	Prompter    Prompter
	DHCP        *DHCPControl
	FactoryInit settings.FactoryInitSettings
	// Wait blocks for a wait_s instruction.
	Wait func(ctx context.Context, d time.Duration) error
	Out  io.Writer
}

const (
	diagToken      = "diag"
	diagQuestion   = "  - Do you want to run diag:"
	pressEnter     = "\nPress Enter to continue..."
	manualFinished = "\nPerform the steps above, then press Enter to continue..."
)

// Dispatcher walks an instruction list in order. It is synchronous: each
// instruction completes before the next is considered.
type Dispatcher struct {
	env Env
}

// New creates a dispatcher, filling unset streams and waits with console
// defaults.
func New(env Env) *Dispatcher {
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Prompter == nil {
		env.Prompter = NewConsolePrompter(os.Stdin, env.Out)
	}
	if env.Scheduler == nil {
		s := schedule.New()
		s.Out = env.Out
		env.Scheduler = s
	}
	if env.Wait == nil {
		out := env.Out
		env.Wait = func(ctx context.Context, d time.Duration) error {
			bar := cli.NewProgressBar(out, d)
			if err := schedule.Wait(ctx, d, bar.Update); err != nil {
				return err
			}
			bar.Finish()
			return nil
		}
	}
	return &Dispatcher{env: env}
}

// Dispatch selects the run mode and processes every line. A failing
// instruction is reported and the walk continues.
func (d *Dispatcher) Dispatch(ctx context.Context, lines []instruction.Line) *Result {
	start := time.Now()
	res := &Result{}
	defer func() { res.Duration = time.Since(start) }()

	mode, err := instruction.SelectMode(lines)
	if err != nil {
		fmt.Fprintf(d.env.Out, "%s %v\n", cli.Red("[ERROR]"), err)
		util.Errorf("%v", err)
		res.Err = err
		res.finish()
		return res
	}
	res.Mode = mode
	fmt.Fprintf(d.env.Out, "Run mode: %s\n", mode)

	for _, l := range lines {
		if err := ctx.Err(); err != nil {
			res.Err = err
			break
		}
		d.step(ctx, mode, l, res)
	}

	if mode == instruction.Interactive && res.Err == nil {
		if err := d.env.Prompter.WaitEnter(manualFinished); err != nil {
			util.Warnf("reading operator input: %v", err)
		}
	}
	res.finish()
	return res
}

func (d *Dispatcher) step(ctx context.Context, mode instruction.RunMode, l instruction.Line, res *Result) {
	text := l.Trimmed()
	fmt.Fprintf(d.env.Out, "> %s\n", text)

	switch l.Kind {
	case instruction.KindComment, instruction.KindDirective:
		return
	}
	if mode == instruction.Interactive {
		return
	}
	if l.Kind == instruction.KindUnknown {
		res.Manual++
		util.WithInstruction(text).Warnf("no handler for instruction, perform it manually")
		return
	}

	if needsConfirm(mode, l) {
		question := "  - Do you want to RUN: " + text
		if l.Kind == instruction.KindCcc && l.HasToken(diagToken) {
			question = diagQuestion
		}
		ok, err := d.env.Prompter.Confirm(question)
		if err != nil {
			util.WithInstruction(text).Warnf("reading operator input: %v", err)
		}
		if !ok {
			res.Skipped++
			util.WithInstruction(text).Debugf("%v", util.ErrUserDeclined)
			fmt.Fprintln(d.env.Out, cli.Yellow("  skipped"))
			return
		}
	}

	res.Executed++
	if err := d.execute(ctx, l); err != nil {
		ierr := &util.InstructionError{Line: text, Err: err}
		res.Failed++
		res.Failures = append(res.Failures, ierr)
		fmt.Fprintf(d.env.Out, "%s %v\n", cli.Red("[FAILED]"), ierr)
		util.WithInstruction(text).Errorf("%v", err)
	}
}

// needsConfirm applies the confirmation rule: state-changing kinds prompt
// outside FullAuto, and diag invocations prompt in every mode.
func needsConfirm(mode instruction.RunMode, l instruction.Line) bool {
	if l.Kind == instruction.KindCcc && l.HasToken(diagToken) {
		return true
	}
	return l.Kind.StateChanging() && mode != instruction.FullAuto
}

func (d *Dispatcher) execute(ctx context.Context, l instruction.Line) error {
	text := l.Trimmed()
	fields := l.Fields()

	switch l.Kind {
	case instruction.KindCcc, instruction.KindPanorama:
		return d.env.Commands.Run(ctx, text)

	case instruction.KindTimedEvent:
		spec, err := schedule.ParseSpec(fields[1:])
		if err != nil {
			return err
		}
		n, err := d.env.Scheduler.Run(ctx, spec, d.env.Commands.Run)
		util.WithInstruction(text).Debugf("timed event completed %d/%d cycles", n, spec.Cycles())
		return err

	case instruction.KindFactoryInit:
		fmt.Fprintln(d.env.Out, "Running factory_init...")
		return d.env.Commands.FactoryInit(ctx, d.env.FactoryInit.SKU, d.env.FactoryInit.Image)

	case instruction.KindDhcpControl:
		return d.dhcp(fields)

	case instruction.KindWait:
		dur, err := waitDuration(fields)
		if err != nil {
			return err
		}
		return d.env.Wait(ctx, dur)

	case instruction.KindKeypress:
		return d.env.Prompter.WaitEnter(pressEnter)
	}
	return fmt.Errorf("dispatch: no handler for %s", l.Kind)
}

func (d *Dispatcher) dhcp(fields []string) error {
	usage := "usage: dhcp_server start|stop|<offered-ip>"
	if d.env.DHCP == nil {
		return fmt.Errorf("dispatch: %w: no dhcp server configured", util.ErrConfiguration)
	}
	if len(fields) != 2 {
		return util.NewArgumentError(fields[0], "%s", usage)
	}

	switch arg := fields[1]; arg {
	case "start":
		return d.env.DHCP.Start(nil)
	case "stop":
		return d.env.DHCP.Stop()
	default:
		if !util.IsValidIPv4(arg) {
			return util.NewArgumentError(fields[0], "%q is not an IPv4 address; %s", arg, usage)
		}
		return d.env.DHCP.Start(net.ParseIP(arg).To4())
	}
}

func waitDuration(fields []string) (time.Duration, error) {
	if len(fields) != 2 {
		return 0, util.NewArgumentError(instruction.TokenWaitSeconds, "usage: wait_s <seconds>")
	}
	secs, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || secs < 0 {
		return 0, util.NewArgumentError(instruction.TokenWaitSeconds, "%q is not a number of seconds", fields[1])
	}
	return time.Duration(secs * float64(time.Second)), nil
}
