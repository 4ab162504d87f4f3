package dhcpserver

import (
	"net"
	"time"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

// Lease binds an address to a client hardware address until Expiry.
type Lease struct {
	IP     net.IP
	HWAddr net.HardwareAddr
	Expiry time.Time
}

// Expired reports whether the lease has lapsed at now.
func (l *Lease) Expired(now time.Time) bool {
	return now.After(l.Expiry)
}

// LeaseTable tracks one slot per pool address. It is not safe for
// concurrent use; the Handler serialises access.
type LeaseTable struct {
	start uint32
	slots []*Lease
	// last is the slot most recently handed out by the round-robin scan.
	last int
}

// NewLeaseTable creates an empty table for size addresses from start.
func NewLeaseTable(start net.IP, size int) *LeaseTable {
	return &LeaseTable{
		start: util.IPToUint32(start),
		slots: make([]*Lease, size),
		last:  size - 1,
	}
}

// Size is the number of pool addresses.
func (t *LeaseTable) Size() int { return len(t.slots) }

func (t *LeaseTable) slot(ip net.IP) (int, bool) {
	if ip.To4() == nil {
		return 0, false
	}
	n := util.IPToUint32(ip)
	if n < t.start || uint64(n) >= uint64(t.start)+uint64(len(t.slots)) {
		return 0, false
	}
	return int(n - t.start), true
}

func (t *LeaseTable) addr(slot int) net.IP {
	return util.Uint32ToIP(t.start + uint32(slot))
}

// Available reports whether ip may be given to hw: it must lie in the pool
// and be unleased, leased to hw already, or leased but expired.
func (t *LeaseTable) Available(hw net.HardwareAddr, ip net.IP, now time.Time) bool {
	i, ok := t.slot(ip)
	if !ok {
		return false
	}
	l := t.slots[i]
	return l == nil || util.HardwareAddrEqual(l.HWAddr, hw) || l.Expired(now)
}

// Current returns the address recorded for hw, expired or not.
func (t *LeaseTable) Current(hw net.HardwareAddr) (net.IP, bool) {
	for i, l := range t.slots {
		if l != nil && util.HardwareAddrEqual(l.HWAddr, hw) {
			return t.addr(i), true
		}
	}
	return nil, false
}

// NextFree scans the pool round-robin, starting just past the last slot it
// returned, for an address available to hw.
func (t *LeaseTable) NextFree(hw net.HardwareAddr, now time.Time) (net.IP, bool) {
	n := len(t.slots)
	for k := 1; k <= n; k++ {
		i := (t.last + k) % n
		ip := t.addr(i)
		if t.Available(hw, ip, now) {
			t.last = i
			return ip, true
		}
	}
	return nil, false
}

// Commit records a lease. The address must be in the pool.
func (t *LeaseTable) Commit(ip net.IP, hw net.HardwareAddr, expiry time.Time) bool {
	i, ok := t.slot(ip)
	if !ok {
		return false
	}
	// A client holds at most one lease.
	if prev, ok := t.Current(hw); ok && !prev.Equal(ip) {
		t.Remove(prev)
	}
	hwCopy := make(net.HardwareAddr, len(hw))
	copy(hwCopy, hw)
	t.slots[i] = &Lease{IP: t.addr(i), HWAddr: hwCopy, Expiry: expiry}
	return true
}

// Remove deletes any lease on ip.
func (t *LeaseTable) Remove(ip net.IP) {
	if i, ok := t.slot(ip); ok {
		t.slots[i] = nil
	}
}

// Leases returns a copy of every recorded lease in pool order.
func (t *LeaseTable) Leases() []Lease {
	var out []Lease
	for _, l := range t.slots {
		if l != nil {
			out = append(out, *l)
		}
	}
	return out
}
