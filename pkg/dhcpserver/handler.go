package dhcpserver

import (
	"net"
	"sync"
	"time"

	"github.com/insomniacslk/dhcp/dhcpv4"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

// Handler implements the lease protocol independently of any socket.
type Handler struct {
	cfg Config
	now func() time.Time

	mu    sync.Mutex
	table *LeaseTable
}

// NewHandler creates a handler with an empty lease table.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		cfg:   cfg,
		now:   time.Now,
		table: NewLeaseTable(cfg.PoolStart, cfg.PoolSize),
	}
}

// SetClock substitutes the time source.
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

// Leases snapshots the lease table.
func (h *Handler) Leases() []Lease {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.table.Leases()
}

// Handle processes one inbound message and returns the reply, or nil when
// no reply is due.
func (h *Handler) Handle(req *dhcpv4.DHCPv4) *dhcpv4.DHCPv4 {
	if req == nil || req.OpCode != dhcpv4.OpcodeBootRequest {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	log := util.WithFields(map[string]interface{}{
		"component": "dhcp",
		"xid":       req.TransactionID.String(),
		"chaddr":    req.ClientHWAddr.String(),
	})

	switch req.MessageType() {
	case dhcpv4.MessageTypeDiscover:
		ip, ok := h.chooseOffer(req)
		if !ok {
			log.Warnf("pool exhausted, no offer")
			return nil
		}
		log.Debugf("offering %s", ip)
		return h.reply(req, dhcpv4.MessageTypeOffer, ip)

	case dhcpv4.MessageTypeRequest:
		if !h.forThisServer(req) {
			return nil
		}
		ip := req.RequestedIPAddress()
		if ip == nil || ip.IsUnspecified() {
			ip = req.ClientIPAddr
		}
		if !h.table.Available(req.ClientHWAddr, ip, h.now()) {
			log.Infof("nak for %s", ip)
			return h.nak(req, "Requested IP not available")
		}
		h.table.Commit(ip, req.ClientHWAddr, h.now().Add(h.cfg.LeaseDuration))
		log.Infof("leased %s", ip)
		return h.reply(req, dhcpv4.MessageTypeAck, ip)

	case dhcpv4.MessageTypeRelease, dhcpv4.MessageTypeDecline:
		if !h.forThisServer(req) {
			return nil
		}
		if ip, ok := h.table.Current(req.ClientHWAddr); ok {
			h.table.Remove(ip)
			log.Infof("%s released %s", req.MessageType(), ip)
		}
		return nil
	}
	return nil
}

func (h *Handler) chooseOffer(req *dhcpv4.DHCPv4) (net.IP, bool) {
	now := h.now()
	if ip := req.RequestedIPAddress(); ip != nil && h.table.Available(req.ClientHWAddr, ip, now) {
		return ip.To4(), true
	}
	if ip, ok := h.table.Current(req.ClientHWAddr); ok {
		return ip, true
	}
	return h.table.NextFree(req.ClientHWAddr, now)
}

// forThisServer rejects messages naming another server. Messages without a
// server identifier (renewals) are accepted.
func (h *Handler) forThisServer(req *dhcpv4.DHCPv4) bool {
	sid := req.ServerIdentifier()
	return sid == nil || sid.IsUnspecified() || sid.Equal(h.cfg.ServerIP)
}

func (h *Handler) reply(req *dhcpv4.DHCPv4, mt dhcpv4.MessageType, ip net.IP) *dhcpv4.DHCPv4 {
	resp, err := dhcpv4.NewReplyFromRequest(req,
		dhcpv4.WithMessageType(mt),
		dhcpv4.WithYourIP(ip),
		dhcpv4.WithServerIP(h.cfg.ServerIP),
		dhcpv4.WithOption(dhcpv4.OptServerIdentifier(h.cfg.ServerIP)),
		dhcpv4.WithLeaseTime(uint32(h.cfg.LeaseDuration/time.Second)),
		dhcpv4.WithNetmask(h.cfg.Netmask),
		dhcpv4.WithRouter(h.cfg.Router),
		dhcpv4.WithDNS(h.cfg.DNS...),
	)
	if err != nil {
		util.WithField("component", "dhcp").Debugf("build %s: %v", mt, err)
		return nil
	}
	return resp
}

func (h *Handler) nak(req *dhcpv4.DHCPv4, reason string) *dhcpv4.DHCPv4 {
	resp, err := dhcpv4.NewReplyFromRequest(req,
		dhcpv4.WithMessageType(dhcpv4.MessageTypeNak),
		dhcpv4.WithYourIP(net.IPv4zero),
		dhcpv4.WithOption(dhcpv4.OptServerIdentifier(h.cfg.ServerIP)),
		dhcpv4.WithOption(dhcpv4.OptMessage(reason)),
	)
	if err != nil {
		return nil
	}
	return resp
}
