package dhcpserver

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/dhcpv4/server4"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

// ErrNotRunning is returned by Stop when the server was never started.
var ErrNotRunning = errors.New("dhcp server not running")

// ErrRunning is returned by Start when the server is already serving.
var ErrRunning = errors.New("dhcp server already running")

// Server binds UDP port 67 and answers with a Handler on a background
// goroutine until Stop.
type Server struct {
	iface   string
	handler *Handler

	mu   sync.Mutex
	srv  *server4.Server
	done chan struct{}
}

// New creates a stopped server for cfg on the named interface; an empty
// interface binds all.
func New(iface string, cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Server{iface: iface, handler: NewHandler(cfg)}, nil
}

// Handler exposes the protocol handler and its lease table.
func (s *Server) Handler() *Handler { return s.handler }

// Running reports whether the listener goroutine is active.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srv != nil
}

// Start binds the socket and begins serving.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return ErrRunning
	}

	addr := &net.UDPAddr{IP: net.IPv4zero, Port: dhcpv4.ServerPort}
	srv, err := server4.NewServer(s.iface, addr, s.serve, server4.WithLogger(logAdapter{}))
	if err != nil {
		return fmt.Errorf("dhcp: bind %s: %w", addr, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Serve returns once the socket is closed.
		if err := srv.Serve(); err != nil {
			util.WithField("component", "dhcp").Debugf("serve exited: %v", err)
		}
	}()

	s.srv = srv
	s.done = done
	util.WithField("component", "dhcp").Infof("DHCP server is running on %s", ifaceName(s.iface))
	return nil
}

// Stop closes the socket and waits for the listener to exit.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return ErrNotRunning
	}
	err := s.srv.Close()
	<-s.done
	s.srv = nil
	s.done = nil
	util.WithField("component", "dhcp").Infof("DHCP server stopped")
	return err
}

// Wait blocks until the listener exits.
func (s *Server) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Server) serve(conn net.PacketConn, _ net.Addr, m *dhcpv4.DHCPv4) {
	resp := s.handler.Handle(m)
	if resp == nil {
		return
	}
	dst := replyAddr(m)
	if _, err := conn.WriteTo(resp.ToBytes(), dst); err != nil {
		util.WithField("component", "dhcp").Debugf("send %s to %s: %v", resp.MessageType(), dst, err)
	}
}

// replyAddr picks the destination for a reply: the relay agent if one
// forwarded the request, the client address if it has one, otherwise the
// limited broadcast address.
func replyAddr(req *dhcpv4.DHCPv4) net.Addr {
	if gi := req.GatewayIPAddr; gi != nil && !gi.IsUnspecified() {
		return &net.UDPAddr{IP: gi, Port: dhcpv4.ServerPort}
	}
	if ci := req.ClientIPAddr; ci != nil && !ci.IsUnspecified() {
		return &net.UDPAddr{IP: ci, Port: dhcpv4.ClientPort}
	}
	return &net.UDPAddr{IP: net.IPv4bcast, Port: dhcpv4.ClientPort}
}

func ifaceName(s string) string {
	if s == "" {
		return "all interfaces"
	}
	return s
}

// logAdapter routes server4 diagnostics through the global logger.
type logAdapter struct{}

func (logAdapter) PrintMessage(prefix string, message *dhcpv4.DHCPv4) {
	util.WithField("component", "dhcp").Debugf("%s: %s", prefix, message.Summary())
}

func (logAdapter) Printf(format string, v ...interface{}) {
	util.WithField("component", "dhcp").Debugf(format, v...)
}
