// Package command runs the external programs that instruction lines name
// through a symbolic token such as "ccc" or "panorama".
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

// Template binds a symbolic token to a program and the fixed arguments that
// precede the pass-through tokens of the instruction.
type Template struct {
	Name    string
	Program string
	Args    []string
}

// Spec is a fully resolved invocation.
type Spec struct {
	Program string
	Args    []string
	// Source is the instruction line the spec was derived from.
	Source string
}

func (s Spec) String() string {
	return strings.Join(append([]string{s.Program}, s.Args...), " ")
}

// Executor spawns a resolved command and waits for it to exit.
type Executor interface {
	// Run inherits the given streams and returns the exit status.
	Run(ctx context.Context, spec Spec, stdout, stderr io.Writer) (int, error)
	// Output captures standard output and returns it with the exit status.
	Output(ctx context.Context, spec Spec) ([]byte, int, error)
}

// Runner resolves instruction lines against templates and executes them
// synchronously. No timeout is applied; a program that never exits blocks
// the caller.
type Runner struct {
	templates map[string]Template
	exec      Executor
	lookPath  func(string) (string, error)

	Stdout io.Writer
	Stderr io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor substitutes the process spawner.
func WithExecutor(e Executor) Option {
	return func(r *Runner) { r.exec = e }
}

// WithLookPath substitutes the executable existence check.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(r *Runner) { r.lookPath = fn }
}

// WithOutput sets the streams a child process inherits.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.Stdout = stdout
		r.Stderr = stderr
	}
}

// NewRunner creates a runner for the given templates.
func NewRunner(templates []Template, opts ...Option) *Runner {
	r := &Runner{
		templates: make(map[string]Template, len(templates)),
		exec:      OSExecutor{},
		lookPath:  locate,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
	for _, t := range templates {
		r.templates[t.Name] = t
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Template returns the template registered for a token.
func (r *Runner) Template(name string) (Template, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// Resolve turns an instruction line into a Spec. The first field must be a
// registered token; the remaining fields pass through after the template's
// fixed arguments.
func (r *Runner) Resolve(line string) (Spec, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Spec{}, util.NewArgumentError("command", "empty instruction")
	}
	t, ok := r.templates[fields[0]]
	if !ok {
		return Spec{}, util.NewArgumentError(fields[0], "no command template configured")
	}
	args := make([]string, 0, len(t.Args)+len(fields)-1)
	args = append(args, t.Args...)
	args = append(args, fields[1:]...)
	return Spec{Program: t.Program, Args: args, Source: strings.TrimSpace(line)}, nil
}

func (r *Runner) prepare(ctx context.Context, line string) (Spec, error) {
	spec, err := r.Resolve(line)
	if err != nil {
		return Spec{}, err
	}
	if _, err := r.lookPath(spec.Program); err != nil {
		return Spec{}, &util.NotFoundError{Path: spec.Program}
	}
	if err := ctx.Err(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Run executes the instruction and succeeds iff the program exits with 0.
func (r *Runner) Run(ctx context.Context, line string) error {
	spec, err := r.prepare(ctx, line)
	if err != nil {
		return err
	}
	util.WithInstruction(spec.Source).Debugf("exec %s", spec)

	status, err := r.exec.Run(ctx, spec, r.Stdout, r.Stderr)
	if err != nil {
		return &util.SpawnError{Program: spec.Program, Err: err}
	}
	if status != 0 {
		return &util.ExitError{Program: spec.Program, Status: status}
	}
	return nil
}

// Output executes the instruction and returns its captured standard output.
func (r *Runner) Output(ctx context.Context, line string) (string, error) {
	spec, err := r.prepare(ctx, line)
	if err != nil {
		return "", err
	}
	util.WithInstruction(spec.Source).Debugf("exec (captured) %s", spec)

	out, status, err := r.exec.Output(ctx, spec)
	if err != nil {
		return "", &util.SpawnError{Program: spec.Program, Err: err}
	}
	if status != 0 {
		return "", &util.ExitError{Program: spec.Program, Status: status}
	}
	return string(out), nil
}

// FactoryInit reads the device serial number and re-runs factory
// initialisation with it.
func (r *Runner) FactoryInit(ctx context.Context, sku int, image string) error {
	out, err := r.Output(ctx, "ccc get serial_number")
	if err != nil {
		return fmt.Errorf("command: reading serial number: %w", err)
	}
	serial, err := bracketedInt(out)
	if err != nil {
		return fmt.Errorf("command: reading serial number: %w", err)
	}

	line := fmt.Sprintf("ccc factory-init --sku %d --serial-number %d %s", sku, serial, image)
	fmt.Fprintf(r.Stdout, "Running %s\n", line)
	return r.Run(ctx, line)
}

// bracketedInt extracts the integer between the first '[' and ']'.
func bracketedInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '[')
	if open < 0 {
		return 0, fmt.Errorf("%w: no bracketed value in %q", util.ErrProtocolViolation, s)
	}
	end := strings.IndexByte(s[open+1:], ']')
	if end < 0 {
		return 0, fmt.Errorf("%w: unterminated bracket in %q", util.ErrProtocolViolation, s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[open+1 : open+1+end]))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", util.ErrProtocolViolation, err)
	}
	return n, nil
}

// locate checks that a program exists. A path with a directory component
// only has to exist; permission problems surface when it is spawned. A bare
// name is searched on PATH.
func locate(program string) (string, error) {
	if !strings.ContainsRune(program, '/') && !strings.ContainsRune(program, filepath.Separator) {
		return exec.LookPath(program)
	}
	fi, err := os.Stat(program)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", fmt.Errorf("%s is a directory", program)
	}
	return program, nil
}

// OSExecutor spawns real processes. Standard input is inherited so that
// interactive tools keep working. The context is not attached to the child:
// a program runs until it exits on its own.
type OSExecutor struct{}

func (OSExecutor) Run(_ context.Context, spec Spec, stdout, stderr io.Writer) (int, error) {
	cmd := exec.Command(spec.Program, spec.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return exitStatus(cmd.Run())
}

func (OSExecutor) Output(_ context.Context, spec Spec) ([]byte, int, error) {
	var stderr bytes.Buffer
	cmd := exec.Command(spec.Program, spec.Args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	status, err := exitStatus(err)
	if status != 0 && stderr.Len() > 0 {
		util.WithField("program", spec.Program).Warnf("stderr: %s", strings.TrimSpace(stderr.String()))
	}
	return out, status, err
}

func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
