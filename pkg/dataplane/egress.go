package dataplane

import (
	"github.com/gopacket/gopacket/layers"

	"github.com/srv6pot/potnode/pkg/driver"
	"github.com/srv6pot/potnode/pkg/errs"
	"github.com/srv6pot/potnode/pkg/potcfg"
	"github.com/srv6pot/potnode/pkg/potcrypto"
	"github.com/srv6pot/potnode/pkg/stats"
	"github.com/srv6pot/potnode/pkg/wire"
)

// Egress verifies the chained PVF against the recomputed HMAC, strips
// the SRH+HMAC TLV+PoT TLV chain, and delivers the inner packet to its
// local destination. A mismatch is dropped silently: the counter is
// bumped but nothing is ever sent back to the source. buf is released
// exactly once.
func Egress(cfg *potcfg.Config, counters *stats.Counters, port driver.Port, queue int, buf driver.Buffer) {
	scoped := driver.Acquire(buf)
	defer scoped.Release()

	frame, err := wire.ParseFrame(buf.Bytes())
	if err != nil {
		counters.IncError(potcfg.RoleEgress, errs.MalformedPacket)
		return
	}
	if frame.Eth.EthernetType != layers.EthernetTypeIPv6 {
		return
	}
	if wire.IsMulticastOrBroadcast(frame.Eth.DstMAC) {
		return
	}
	if frame.SRH == nil || frame.SRH.NextHeader != wire.SRHNextHeaderPoT {
		counters.IncError(potcfg.RoleEgress, errs.MalformedPacket)
		return
	}

	h, err := potcrypto.DecryptPVF(cfg.Keys[0], frame.PoT.Nonce, frame.PoT.EncryptedHMAC)
	if err != nil {
		counters.IncError(potcfg.RoleEgress, errs.Crypto)
		return
	}

	var srcAddr [16]byte
	copy(srcAddr[:], frame.IP6.SrcIP.To16())
	preimage := wire.Preimage(srcAddr, frame.SRH, frame.HMAC)
	expected, err := potcrypto.HMAC(cfg.Keys[0], preimage)
	if err != nil {
		counters.IncError(potcfg.RoleEgress, errs.Crypto)
		return
	}

	if !potcrypto.Equal(h, expected) {
		counters.IncError(potcfg.RoleEgress, errs.HmacMismatch)
		return
	}

	if err := frame.RemoveExtensions(); err != nil {
		counters.IncError(potcfg.RoleEgress, errs.MalformedPacket)
		return
	}

	forward(cfg, counters, scoped, port, queue, potcfg.RoleEgress, frame, frame.IP6.DstIP)
}
