// Package dhcpserver is a minimal DHCPv4 lease server used to provision a
// device under test over a direct ethernet link.
package dhcpserver

import (
	"fmt"
	"net"
	"time"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

// Fixed addressing of the provisioning link.
var (
	DefaultServerIP  = net.IPv4(192, 168, 32, 100).To4()
	DefaultPoolStart = net.IPv4(192, 168, 32, 61).To4()
	DefaultNetmask   = net.IPv4Mask(255, 255, 255, 0)
	DefaultRouter    = net.IPv4(192, 168, 32, 100).To4()
	DefaultDNS       = []net.IP{net.IPv4(8, 8, 8, 8).To4(), net.IPv4(4, 4, 4, 4).To4()}
)

const (
	DefaultPoolSize      = 1
	DefaultLeaseDuration = 7200 * time.Second
)

// Config describes the addresses the server hands out.
type Config struct {
	ServerIP      net.IP
	PoolStart     net.IP
	PoolSize      int
	Netmask       net.IPMask
	Router        net.IP
	DNS           []net.IP
	LeaseDuration time.Duration
}

// DefaultConfig returns the provisioning-link configuration.
func DefaultConfig() Config {
	return Config{
		ServerIP:      DefaultServerIP,
		PoolStart:     DefaultPoolStart,
		PoolSize:      DefaultPoolSize,
		Netmask:       DefaultNetmask,
		Router:        DefaultRouter,
		DNS:           DefaultDNS,
		LeaseDuration: DefaultLeaseDuration,
	}
}

// WithOffer returns a copy whose pool is the single given address.
func (c Config) WithOffer(ip net.IP) Config {
	c.PoolStart = ip.To4()
	c.PoolSize = 1
	return c
}

// Validate checks the pool fits within IPv4 space.
func (c Config) Validate() error {
	if !util.IsValidIPv4(c.ServerIP.String()) {
		return fmt.Errorf("%w: invalid server address %v", util.ErrConfiguration, c.ServerIP)
	}
	if !util.IsValidIPv4(c.PoolStart.String()) {
		return fmt.Errorf("%w: invalid pool start %v", util.ErrConfiguration, c.PoolStart)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("%w: pool size must be at least 1", util.ErrConfiguration)
	}
	if uint64(util.IPToUint32(c.PoolStart))+uint64(c.PoolSize) > 1<<32 {
		return fmt.Errorf("%w: pool overflows address space", util.ErrConfiguration)
	}
	if c.LeaseDuration <= 0 {
		return fmt.Errorf("%w: lease duration must be positive", util.ErrConfiguration)
	}
	return nil
}
