// Package livepcap implements capture.Backend over libpcap.
package livepcap

import (
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/capture"
)

// Interface flag bits reported by pcap_findalldevs.
const (
	flagRunning          = 0x00000004
	flagStatusMask       = 0x00000030
	flagStatusConnected  = 0x00000010
	flagStatusDisconnect = 0x00000020
)

// DefaultReadTimeout bounds each blocking read so the capture worker can
// observe its stop flag.
const DefaultReadTimeout = 500 * time.Millisecond

// Backend opens live promiscuous captures.
type Backend struct {
	ReadTimeout time.Duration
}

// New returns a Backend with the default read timeout.
func New() *Backend {
	return &Backend{ReadTimeout: DefaultReadTimeout}
}

// Devices lists every adapter libpcap can see.
func (b *Backend) Devices() ([]capture.Device, error) {
	ifs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, err
	}
	devices := make([]capture.Device, 0, len(ifs))
	for _, ifc := range ifs {
		d := capture.Device{Name: ifc.Name, Connected: connected(ifc.Flags)}
		for _, a := range ifc.Addresses {
			d.Addresses = append(d.Addresses, a.IP)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Open starts a live capture on the named adapter.
func (b *Backend) Open(device string) (capture.Source, error) {
	timeout := b.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	h, err := pcap.OpenLive(device, capture.Snaplen, true, timeout)
	if err != nil {
		return nil, err
	}
	return source{h}, nil
}

// source reports an empty read window as capture.ErrReadTimeout.
type source struct {
	*pcap.Handle
}

func (s source) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	data, ci, err := s.Handle.ReadPacketData()
	return data, ci, readError(err)
}

func readError(err error) error {
	if err == pcap.NextErrorTimeoutExpired {
		return capture.ErrReadTimeout
	}
	return err
}

// connected prefers the explicit link status; adapters that do not report
// one fall back to the RUNNING bit.
func connected(flags uint32) bool {
	switch flags & flagStatusMask {
	case flagStatusConnected:
		return true
	case flagStatusDisconnect:
		return false
	default:
		return flags&flagRunning != 0
	}
}
