package dispatch

import (
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/cli"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

// DHCPServer is the lifecycle of a lease server.
type DHCPServer interface {
	Start() error
	Stop() error
}

// DHCPFactory builds a stopped server. A non-nil offer restricts the pool
// to that single address.
type DHCPFactory func(offer net.IP) (DHCPServer, error)

// DHCPControl owns at most one running lease server across instructions
// and tests.
type DHCPControl struct {
	factory DHCPFactory
	out     io.Writer

	mu     sync.Mutex
	server DHCPServer
}

// NewDHCPControl creates a control with no server running.
func NewDHCPControl(factory DHCPFactory, out io.Writer) *DHCPControl {
	return &DHCPControl{factory: factory, out: out}
}

// Running reports whether a server is held.
func (c *DHCPControl) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server != nil
}

// Start builds and starts a server. Starting while one runs is a no-op.
func (c *DHCPControl) Start(offer net.IP) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.server != nil {
		fmt.Fprintln(c.out, "  DHCP server is already running.")
		return nil
	}
	if c.factory == nil {
		return fmt.Errorf("dispatch: %w: no dhcp server configured", util.ErrConfiguration)
	}
	srv, err := c.factory(offer)
	if err != nil {
		return fmt.Errorf("dispatch: dhcp server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("dispatch: dhcp server: %w", err)
	}
	c.server = srv
	if offer != nil {
		fmt.Fprintf(c.out, "  DHCP server started, offering %s\n", offer)
	} else {
		fmt.Fprintln(c.out, "  DHCP server started.")
	}
	return nil
}

// Stop stops the held server. Stopping when none runs is a no-op.
func (c *DHCPControl) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.server == nil {
		fmt.Fprintln(c.out, "  DHCP server is not running.")
		return nil
	}
	err := c.server.Stop()
	c.server = nil
	if err != nil {
		return fmt.Errorf("dispatch: dhcp server: %w", err)
	}
	fmt.Fprintln(c.out, "  DHCP server stopped.")
	return nil
}

// Close stops a still-running server without the not-running notice.
func (c *DHCPControl) Close() {
	if !c.Running() {
		return
	}
	if err := c.Stop(); err != nil {
		cli.Warnln(c.out, "%v", err)
	}
}
