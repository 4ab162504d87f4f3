package schedule

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newTestScheduler() (*Scheduler, *bytes.Buffer) {
	var out bytes.Buffer
	return &Scheduler{Sleep: noSleep, Out: &out}, &out
}

// counter is an Invoker that counts calls and fails on a chosen call.
type counter struct {
	calls  int
	failAt int
	lines  []string
}

func (c *counter) invoke(_ context.Context, line string) error {
	c.calls++
	c.lines = append(c.lines, line)
	if c.failAt > 0 && c.calls == c.failAt {
		return &util.ExitError{Program: "./ccc.exe", Status: 2}
	}
	return nil
}

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec([]string{"10", "3", "ccc", "get", "temperature"})
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	if spec.Timeout != 10*time.Second || spec.Period != 3*time.Second {
		t.Errorf("spec = %+v", spec)
	}
	if spec.Command != "ccc get temperature" {
		t.Errorf("Command = %q", spec.Command)
	}
}

func TestParseSpec_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
	}{
		{"no tokens", nil},
		{"one token", []string{"10"}},
		{"non numeric timeout", []string{"ten", "3", "ccc"}},
		{"non numeric period", []string{"10", "x", "ccc"}},
		{"zero period", []string{"10", "0", "ccc"}},
		{"negative timeout", []string{"-1", "1", "ccc"}},
		{"timeout below period", []string{"2", "5", "ccc", "get"}},
		{"no command", []string{"10", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpec(tt.tokens)
			if !errors.Is(err, util.ErrConfiguration) {
				t.Errorf("ParseSpec(%v) error = %v, want ErrConfiguration", tt.tokens, err)
			}
		})
	}
}

func TestSpec_Cycles(t *testing.T) {
	tests := []struct {
		timeout, period time.Duration
		want            int
	}{
		{10 * time.Second, 3 * time.Second, 4},
		{9 * time.Second, 3 * time.Second, 3},
		{3 * time.Second, 3 * time.Second, 1},
		{1500 * time.Millisecond, 500 * time.Millisecond, 3},
		{time.Second, 0, 0},
	}
	for _, tt := range tests {
		s := Spec{Timeout: tt.timeout, Period: tt.period}
		if got := s.Cycles(); got != tt.want {
			t.Errorf("Cycles(%s/%s) = %d, want %d", tt.timeout, tt.period, got, tt.want)
		}
	}
}

func TestRun_InvocationCounts(t *testing.T) {
	tests := []struct {
		tokens []string
		want   int
	}{
		{[]string{"10", "3", "ccc", "get", "temp"}, 4},
		{[]string{"9", "3", "ccc", "get", "temp"}, 3},
	}
	for _, tt := range tests {
		spec, err := ParseSpec(tt.tokens)
		if err != nil {
			t.Fatalf("ParseSpec: %v", err)
		}
		s, _ := newTestScheduler()
		c := &counter{}

		n, err := s.Run(context.Background(), spec, c.invoke)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if c.calls != tt.want || n != tt.want {
			t.Errorf("event_timed %v: calls = %d (reported %d), want %d", tt.tokens, c.calls, n, tt.want)
		}
		for _, l := range c.lines {
			if l != "ccc get temp" {
				t.Errorf("inner command = %q", l)
			}
		}
	}
}

func TestRun_FailureAbortsLoop(t *testing.T) {
	spec := Spec{Timeout: 10 * time.Second, Period: time.Second, Command: "ccc get temp"}
	s, _ := newTestScheduler()
	c := &counter{failAt: 3}

	n, err := s.Run(context.Background(), spec, c.invoke)
	if !errors.Is(err, util.ErrExternalCommand) {
		t.Fatalf("Run error = %v, want ErrExternalCommand", err)
	}
	if c.calls != 3 {
		t.Errorf("calls = %d, want 3 (loop must stop at first failure)", c.calls)
	}
	if n != 2 {
		t.Errorf("successful invocations = %d, want 2", n)
	}
}

func TestRun_SleepsBeforeEachInvocation(t *testing.T) {
	var events []string
	s := &Scheduler{
		Out: &bytes.Buffer{},
		Sleep: func(_ context.Context, d time.Duration) error {
			events = append(events, "sleep "+d.String())
			return nil
		},
	}
	spec := Spec{Timeout: 4 * time.Second, Period: 2 * time.Second, Command: "ccc get x"}

	_, err := s.Run(context.Background(), spec, func(context.Context, string) error {
		events = append(events, "invoke")
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"sleep 2s", "invoke", "sleep 2s", "invoke"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestRun_CancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Scheduler{Out: &bytes.Buffer{}, Sleep: func(ctx context.Context, d time.Duration) error {
		return Wait(ctx, d, nil)
	}}
	c := &counter{}

	_, err := s.Run(ctx, Spec{Timeout: time.Hour, Period: time.Minute, Command: "ccc"}, c.invoke)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if c.calls != 0 {
		t.Errorf("calls = %d, want 0", c.calls)
	}
}

func TestWait_Elapses(t *testing.T) {
	start := time.Now()
	if err := Wait(context.Background(), 20*time.Millisecond, nil); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Wait returned after %s, want >= 20ms", elapsed)
	}
}
