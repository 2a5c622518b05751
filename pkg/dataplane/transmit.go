// Package dataplane implements the three role-specific packet processors
// (ingress, transit, egress) and the forwarding loop that drives them
// against a driver.Port.
package dataplane

import (
	"net"
	"net/netip"

	"github.com/srv6pot/potnode/pkg/driver"
	"github.com/srv6pot/potnode/pkg/errs"
	"github.com/srv6pot/potnode/pkg/potcfg"
	"github.com/srv6pot/potnode/pkg/stats"
	"github.com/srv6pot/potnode/pkg/wire"
)

// resolveNextHop looks up dst's next-hop MAC in cfg's table, bumping the
// role's NoRoute counter on a miss.
func resolveNextHop(cfg *potcfg.Config, counters *stats.Counters, role potcfg.Role, dst net.IP) (net.HardwareAddr, bool) {
	addr, ok := netip.AddrFromSlice(dst.To16())
	if !ok {
		counters.IncError(role, errs.NoRoute)
		return nil, false
	}
	mac, ok := cfg.NextHops.Lookup(addr)
	if !ok {
		counters.IncError(role, errs.NoRoute)
		return nil, false
	}
	return mac, true
}

// transmit rewrites frame's Ethernet destination to mac, serialises it
// back into the caller's own buffer (growing or shrinking its headroom
// to match whatever AddExtensions/RemoveExtensions did to the frame's
// length), and offers that same buffer to port. On a successful
// tx-burst, scoped is marked Consumed so the caller's deferred Release
// becomes a no-op: ownership has passed to the port. On any failure,
// scoped is left alone and the caller's deferred Release reclaims the
// buffer exactly as it would for a processor that never forwarded at all.
func transmit(scoped *driver.Scoped, port driver.Port, queue int, frame *wire.Frame, mac net.HardwareAddr) error {
	frame.Eth.DstMAC = mac

	raw, err := frame.Serialize()
	if err != nil {
		return errs.Wrap(errs.MalformedPacket, err)
	}

	buf := scoped.Buffer()
	if delta := len(raw) - len(buf.Bytes()); delta > 0 {
		if err := buf.ExtendHeadroom(delta); err != nil {
			return err
		}
	} else if delta < 0 {
		if err := buf.ShrinkHeadroom(-delta); err != nil {
			return err
		}
	}
	copy(buf.Bytes(), raw)

	accepted, err := port.TXBurst(queue, []driver.Buffer{buf}, 1)
	if err != nil {
		return errs.Wrap(errs.NoRoute, err)
	}
	if accepted == 0 {
		return errs.New(errs.NoRoute, "transmit: tx_burst accepted 0 of 1")
	}
	scoped.Consume()
	return nil
}
