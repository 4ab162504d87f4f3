package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

// fakeExecutor records every spec and answers from a script.
type fakeExecutor struct {
	runs    []Spec
	status  int
	err     error
	outputs map[string]string
}

func (f *fakeExecutor) Run(_ context.Context, spec Spec, _, _ io.Writer) (int, error) {
	f.runs = append(f.runs, spec)
	return f.status, f.err
}

func (f *fakeExecutor) Output(_ context.Context, spec Spec) ([]byte, int, error) {
	f.runs = append(f.runs, spec)
	return []byte(f.outputs[strings.Join(spec.Args, " ")]), f.status, f.err
}

func found(string) (string, error) { return "", nil }

func missing(string) (string, error) { return "", exec.ErrNotFound }

func testTemplates() []Template {
	return []Template{
		{Name: "ccc", Program: "./ccc.exe"},
		{Name: "panorama", Program: "./panorama_cli.exe", Args: []string{"run", "-t"}},
	}
}

// ============================================================================
// Resolve Tests
// ============================================================================

func TestResolve(t *testing.T) {
	r := NewRunner(testTemplates())

	tests := []struct {
		line     string
		wantProg string
		wantArgs string
	}{
		{"ccc get serial_number", "./ccc.exe", "get serial_number"},
		{"  ccc   set  fps 10  ", "./ccc.exe", "set fps 10"},
		{"ccc", "./ccc.exe", ""},
		{"panorama capture.json", "./panorama_cli.exe", "run -t capture.json"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			spec, err := r.Resolve(tt.line)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if spec.Program != tt.wantProg {
				t.Errorf("Program = %q, want %q", spec.Program, tt.wantProg)
			}
			if got := strings.Join(spec.Args, " "); got != tt.wantArgs {
				t.Errorf("Args = %q, want %q", got, tt.wantArgs)
			}
			if spec.Source != strings.TrimSpace(tt.line) {
				t.Errorf("Source = %q", spec.Source)
			}
		})
	}
}

func TestResolve_OnlyLeadingToken(t *testing.T) {
	r := NewRunner(testTemplates())

	spec, err := r.Resolve("ccc set name ccc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := strings.Join(spec.Args, " "); got != "set name ccc" {
		t.Errorf("later occurrences must pass through unchanged, got %q", got)
	}
}

func TestResolve_UnknownToken(t *testing.T) {
	r := NewRunner(testTemplates())

	_, err := r.Resolve("foo bar")
	if !errors.Is(err, util.ErrConfiguration) {
		t.Errorf("Resolve(unknown) error = %v, want ErrConfiguration", err)
	}
	if _, err := r.Resolve("   "); !errors.Is(err, util.ErrConfiguration) {
		t.Errorf("Resolve(empty) error = %v, want ErrConfiguration", err)
	}
}

// ============================================================================
// Run Tests
// ============================================================================

func TestRun_Success(t *testing.T) {
	fe := &fakeExecutor{}
	r := NewRunner(testTemplates(), WithExecutor(fe), WithLookPath(found))

	if err := r.Run(context.Background(), "ccc set fps 10"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fe.runs) != 1 || fe.runs[0].String() != "./ccc.exe set fps 10" {
		t.Errorf("runs = %+v", fe.runs)
	}
}

func TestRun_NotFoundIsNotAttempted(t *testing.T) {
	fe := &fakeExecutor{}
	r := NewRunner(testTemplates(), WithExecutor(fe), WithLookPath(missing))

	err := r.Run(context.Background(), "ccc get fps")

	var nf *util.NotFoundError
	if !errors.As(err, &nf) || nf.Path != "./ccc.exe" {
		t.Fatalf("Run error = %v, want NotFoundError for ./ccc.exe", err)
	}
	if !errors.Is(err, util.ErrConfiguration) {
		t.Error("missing executable should be a configuration error")
	}
	if len(fe.runs) != 0 {
		t.Errorf("executor should not be called, got %d runs", len(fe.runs))
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	fe := &fakeExecutor{status: 4}
	r := NewRunner(testTemplates(), WithExecutor(fe), WithLookPath(found))

	err := r.Run(context.Background(), "ccc get fps")

	var exitErr *util.ExitError
	if !errors.As(err, &exitErr) || exitErr.Status != 4 {
		t.Fatalf("Run error = %v, want ExitError status 4", err)
	}
	if !errors.Is(err, util.ErrExternalCommand) {
		t.Error("non-zero exit should be ErrExternalCommand")
	}
}

func TestRun_SpawnFailure(t *testing.T) {
	fe := &fakeExecutor{err: errors.New("exec format error")}
	r := NewRunner(testTemplates(), WithExecutor(fe), WithLookPath(found))

	err := r.Run(context.Background(), "ccc get fps")
	var spawnErr *util.SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("Run error = %v, want SpawnError", err)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	fe := &fakeExecutor{}
	r := NewRunner(testTemplates(), WithExecutor(fe), WithLookPath(found))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Run(ctx, "ccc get fps"); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if len(fe.runs) != 0 {
		t.Error("cancelled run should not spawn")
	}
}

func TestRun_RealProcess(t *testing.T) {
	truePath, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not available")
	}
	falsePath, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false not available")
	}

	var out bytes.Buffer
	r := NewRunner([]Template{
		{Name: "ok", Program: truePath},
		{Name: "bad", Program: falsePath},
	}, WithOutput(&out, &out))

	if err := r.Run(context.Background(), "ok"); err != nil {
		t.Errorf("Run(true): %v", err)
	}
	err = r.Run(context.Background(), "bad")
	var exitErr *util.ExitError
	if !errors.As(err, &exitErr) || exitErr.Status != 1 {
		t.Errorf("Run(false) error = %v, want status 1", err)
	}
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "ccc.exe")
	if err := os.WriteFile(plain, []byte("not a program"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := locate(plain); err != nil {
		t.Errorf("locate(existing file) = %v, want nil", err)
	}
	if _, err := locate(filepath.Join(dir, "missing.exe")); err == nil {
		t.Error("locate(missing file) should fail")
	}
	if _, err := locate(dir); err == nil {
		t.Error("locate(directory) should fail")
	}
}

func TestRun_NonExecutableIsSpawnError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("execute bit is not meaningful on windows")
	}
	prog := filepath.Join(t.TempDir(), "ccc.exe")
	if err := os.WriteFile(prog, []byte("#!/bin/sh\nexit 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	r := NewRunner([]Template{{Name: "ccc", Program: prog}}, WithOutput(io.Discard, io.Discard))

	err := r.Run(context.Background(), "ccc get fps")

	var nf *util.NotFoundError
	if errors.As(err, &nf) {
		t.Fatalf("existing program reported as not found: %v", err)
	}
	var se *util.SpawnError
	if !errors.As(err, &se) {
		t.Errorf("Run error = %v, want SpawnError", err)
	}
}

// ============================================================================
// FactoryInit Tests
// ============================================================================

func TestFactoryInit(t *testing.T) {
	fe := &fakeExecutor{outputs: map[string]string{
		"get serial_number": "serial_number: [ 482913 ]\n",
	}}
	var out bytes.Buffer
	r := NewRunner(testTemplates(), WithExecutor(fe), WithLookPath(found), WithOutput(&out, &out))

	if err := r.FactoryInit(context.Background(), 0, "ultra.cepbin"); err != nil {
		t.Fatalf("FactoryInit: %v", err)
	}
	if len(fe.runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(fe.runs))
	}
	want := "./ccc.exe factory-init --sku 0 --serial-number 482913 ultra.cepbin"
	if got := fe.runs[1].String(); got != want {
		t.Errorf("factory-init = %q, want %q", got, want)
	}
}

func TestFactoryInit_BadSerial(t *testing.T) {
	fe := &fakeExecutor{outputs: map[string]string{
		"get serial_number": "no serial here",
	}}
	r := NewRunner(testTemplates(), WithExecutor(fe), WithLookPath(found))

	err := r.FactoryInit(context.Background(), 0, "ultra.cepbin")
	if !errors.Is(err, util.ErrProtocolViolation) {
		t.Errorf("FactoryInit error = %v, want ErrProtocolViolation", err)
	}
	if len(fe.runs) != 1 {
		t.Errorf("factory-init must not run without a serial, got %d runs", len(fe.runs))
	}
}

func TestBracketedInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"[42]", 42, false},
		{"serial: [ 7 ] extra", 7, false},
		{"[x]", 0, true},
		{"[12", 0, true},
		{"12", 0, true},
	}
	for _, tt := range tests {
		got, err := bracketedInt(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("bracketedInt(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("bracketedInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
