// Package capture records network frames to a pcap file for the duration of
// one validation test.
//
// A Session is created at test start, started before instructions run and
// stopped before the outcome is reported. Capture problems never fail a
// test: when no suitable adapter is present the session is marked Skipped
// and Stop becomes a no-op.
package capture

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/cli"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

// Snaplen is the per-frame capture length written to the file header.
const Snaplen = 65535

// ErrReadTimeout is returned by a Source when a read window closes with no
// frame. The worker retries immediately; any other read error is followed by
// a short pause.
var ErrReadTimeout = errors.New("capture read timeout")

var readBackoff = 10 * time.Millisecond

// Device is a capture-capable network adapter.
type Device struct {
	Name      string
	Addresses []net.IP
	Connected bool
}

// Source yields captured frames. A read error is transient; the caller
// keeps reading until told to stop.
type Source interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
	Close()
}

// Backend enumerates adapters and opens live captures in promiscuous mode.
type Backend interface {
	Devices() ([]Device, error)
	Open(device string) (Source, error)
}

// State is the session lifecycle.
type State int

const (
	StateCreated State = iota
	StateRunning
	StateSkipped
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSkipped:
		return "skipped"
	case StateStopped:
		return "stopped"
	default:
		return "created"
	}
}

// Config parameterises a session.
type Config struct {
	Dir     string
	HostIP  net.IP
	Backend Backend
	// MaxDuration is a wall-clock ceiling after which the session stops
	// itself; zero means no ceiling.
	MaxDuration time.Duration
	// Out receives operator-facing status lines.
	Out io.Writer
}

// Session is one test's capture.
type Session struct {
	testID string
	path   string
	cfg    Config

	cancelled atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	packets   atomic.Int64

	mu      sync.Mutex
	state   State
	started bool
}

// NewSession prepares the output directory and removes a stale capture of
// the same test. Preparation failures mark the session Skipped.
func NewSession(testID string, cfg Config) *Session {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	s := &Session{
		testID: testID,
		path:   filepath.Join(cfg.Dir, testID+".pcap"),
		cfg:    cfg,
		done:   make(chan struct{}),
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		cli.Warnln(cfg.Out, "Failed to create %s directory: %v", cfg.Dir, err)
		s.state = StateSkipped
		return s
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		cli.Warnln(cfg.Out, "Failed to remove existing pcap file. %v", err)
		s.state = StateSkipped
	}
	return s
}

// Path is the capture file location.
func (s *Session) Path() string { return s.path }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cancelled reports whether the stop flag has been raised.
func (s *Session) Cancelled() bool { return s.cancelled.Load() }

// Packets is the number of frames written so far.
func (s *Session) Packets() int64 { return s.packets.Load() }

// Start selects the adapter carrying the host address and begins capturing.
// It never returns an error; any failure marks the session Skipped.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled.Load() {
		return
	}
	if s.state != StateCreated {
		if s.state == StateSkipped {
			cli.Warnln(s.cfg.Out, "Skipping pcap...")
		}
		return
	}

	dev, err := s.selectDevice()
	if err != nil {
		util.WithTest(s.testID).Debugf("capture skipped: %v", err)
		s.skip()
		return
	}

	src, err := s.cfg.Backend.Open(dev.Name)
	if err != nil {
		cli.Warnln(s.cfg.Out, "Failed to open capture on %s: %v", dev.Name, err)
		s.skip()
		return
	}

	f, err := os.Create(s.path)
	if err != nil {
		src.Close()
		cli.Warnln(s.cfg.Out, "Failed to create pcap file: %v", err)
		s.skip()
		return
	}
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(Snaplen, src.LinkType()); err != nil {
		src.Close()
		f.Close()
		os.Remove(s.path)
		cli.Warnln(s.cfg.Out, "Failed to create pcap saver: %v", err)
		s.skip()
		return
	}

	fmt.Fprintf(s.cfg.Out, "[PCAP] Capture started for: %s\n", s.testID)
	s.state = StateRunning
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.record(src, f, w)
	}()

	if s.cfg.MaxDuration > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ceiling(s.cfg.MaxDuration)
		}()
	}
}

// Stop raises the cancellation flag, joins every worker and reports the
// capture location. It returns the file path, or "" if nothing was captured.
// Safe to call in any state and more than once. A stopped session never
// starts again.
func (s *Session) Stop() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()

	switch s.state {
	case StateSkipped:
		cli.Warnln(s.cfg.Out, "Pcap capture was skipped due to some errors in the capture process. This does not affect the testing process or test results.")
		return ""
	case StateCreated:
		s.state = StateStopped
		return ""
	case StateStopped:
		if !s.started {
			return ""
		}
		return s.path
	}

	s.wg.Wait()
	s.state = StateStopped
	fmt.Fprintf(s.cfg.Out, "[PCAP] You can find the captured pcap at: %s\n", s.path)
	util.WithTest(s.testID).Infof("capture stopped, %d packets written to %s", s.packets.Load(), s.path)
	return s.path
}

func (s *Session) skip() {
	s.state = StateSkipped
	cli.Warnln(s.cfg.Out, " Skipping pcap...")
}

func (s *Session) cancel() {
	s.cancelled.Store(true)
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) selectDevice() (Device, error) {
	if s.cfg.Backend == nil {
		return Device{}, fmt.Errorf("%w: no capture backend", util.ErrDeviceUnavailable)
	}
	devices, err := s.cfg.Backend.Devices()
	if err != nil {
		cli.Warnln(s.cfg.Out, "Failed to list devices: %v", err)
		return Device{}, fmt.Errorf("%w: %v", util.ErrDeviceUnavailable, err)
	}

	for _, d := range devices {
		if !hasAddress(d, s.cfg.HostIP) {
			continue
		}
		if !d.Connected {
			cli.Warnln(s.cfg.Out, "Device with IP %s is not connected.", s.cfg.HostIP)
			cli.Helpln(s.cfg.Out, "Check the ethernet hardware connection.")
			return Device{}, fmt.Errorf("%w: %s not connected", util.ErrDeviceUnavailable, d.Name)
		}
		return d, nil
	}

	cli.Warnln(s.cfg.Out, "No device found with IP %s.", s.cfg.HostIP)
	cli.Helpln(s.cfg.Out, "Check your system [Network Connections / Adapters] configuration for IP: %s.", s.cfg.HostIP)
	return Device{}, fmt.Errorf("%w: no adapter with %s", util.ErrDeviceUnavailable, s.cfg.HostIP)
}

func hasAddress(d Device, ip net.IP) bool {
	for _, a := range d.Addresses {
		if a.Equal(ip) {
			return true
		}
	}
	return false
}

// record copies frames into the sink until the flag is raised. Read and
// write errors are dropped.
func (s *Session) record(src Source, f *os.File, w *pcapgo.Writer) {
	defer f.Close()
	defer src.Close()

	for !s.cancelled.Load() {
		data, ci, err := src.ReadPacketData()
		if err != nil {
			if !errors.Is(err, ErrReadTimeout) {
				s.pause()
			}
			continue
		}
		if err := w.WritePacket(ci, data); err != nil {
			continue
		}
		s.packets.Add(1)
	}
	fmt.Fprintf(s.cfg.Out, "[PCAP] Received stop signal for: %s\n", s.testID)
}

// pause waits out a failing read without delaying Stop.
func (s *Session) pause() {
	t := time.NewTimer(readBackoff)
	defer t.Stop()
	select {
	case <-t.C:
	case <-s.done:
	}
}

// ceiling stops the capture after d even if Stop is never called.
func (s *Session) ceiling(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		util.WithTest(s.testID).Warnf("capture reached its %s ceiling, stopping", d)
		s.cancel()
	case <-s.done:
	}
}
