package dataplane

import (
	"net"

	"github.com/gopacket/gopacket/layers"

	"github.com/srv6pot/potnode/pkg/driver"
	"github.com/srv6pot/potnode/pkg/errs"
	"github.com/srv6pot/potnode/pkg/potcfg"
	"github.com/srv6pot/potnode/pkg/potcrypto"
	"github.com/srv6pot/potnode/pkg/stats"
	"github.com/srv6pot/potnode/pkg/wire"
)

// Ingress stamps a fresh SRH+HMAC TLV+PoT TLV chain onto an incoming
// packet, computes the chain's verification HMAC under k_pot_in[0], and
// seals the initial PVF under whichever key the first node on the chain
// will decrypt with (the first transit's share, or k_pot_in[0] directly
// when there are no transits), then forwards it to the first transit's
// resolved MAC. buf is released exactly once, whether the packet is
// forwarded or dropped.
func Ingress(cfg *potcfg.Config, counters *stats.Counters, port driver.Port, queue int, buf driver.Buffer) {
	scoped := driver.Acquire(buf)
	defer scoped.Release()

	frame, err := wire.ParseFrame(buf.Bytes())
	if err != nil {
		counters.IncError(potcfg.RoleIngress, errs.MalformedPacket)
		return
	}
	if frame.Eth.EthernetType != layers.EthernetTypeIPv6 {
		return
	}
	if wire.IsMulticastOrBroadcast(frame.Eth.DstMAC) {
		return
	}

	if cfg.Bypass == potcfg.BypassAll {
		forward(cfg, counters, scoped, port, queue, potcfg.RoleIngress, frame, frame.IP6.DstIP)
		return
	}

	frame.AddExtensions([wire.NumSegments]net.IP{cfg.SIDs[0], cfg.SIDs[1]}, 0, 0)

	var srcAddr [16]byte
	copy(srcAddr[:], frame.IP6.SrcIP.To16())
	preimage := wire.Preimage(srcAddr, frame.SRH, frame.HMAC)

	h, err := potcrypto.HMAC(cfg.Keys[0], preimage)
	if err != nil {
		counters.IncError(potcfg.RoleIngress, errs.Crypto)
		return
	}
	frame.HMAC.HMACValue = h

	nonce, err := potcrypto.Nonce()
	if err != nil {
		counters.IncError(potcfg.RoleIngress, errs.Crypto)
		return
	}
	// The PVF's encryption key is not k_pot_in[0]: it is sealed under the
	// key the first node on the chain will decrypt with, so that node's
	// own per-hop key share actually participates. With no transits at
	// all, that first node is egress itself (k_pot_in[0]).
	sealKey := cfg.Keys[0]
	if cfg.NumTransitNodes > 0 {
		sealKey = cfg.Keys[1]
	}
	pvf, err := potcrypto.EncryptPVF(sealKey, nonce, h)
	if err != nil {
		counters.IncError(potcfg.RoleIngress, errs.Crypto)
		return
	}
	frame.PoT.Nonce = nonce
	frame.PoT.EncryptedHMAC = pvf

	// next_sid_index = last_entry - segments_left + 1 = 1 - 2 + 1 = 0.
	dst := append(net.IP(nil), frame.SRH.Segments[0].To16()...)
	frame.SRH.SegmentsLeft--
	frame.IP6.DstIP = dst

	forward(cfg, counters, scoped, port, queue, potcfg.RoleIngress, frame, dst)
}

// forward resolves dst's next hop and transmits frame through scoped's
// buffer, bumping counters on any failure.
func forward(cfg *potcfg.Config, counters *stats.Counters, scoped *driver.Scoped, port driver.Port, queue int, role potcfg.Role, frame *wire.Frame, dst net.IP) {
	mac, ok := resolveNextHop(cfg, counters, role, dst)
	if !ok {
		return
	}
	if err := transmit(scoped, port, queue, frame, mac); err != nil {
		if e, ok := errs.As(err); ok {
			counters.IncError(role, e.Kind)
		}
		return
	}
	counters.IncDelivered(role)
}
