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

// Transit removes one layer of the chained PVF seal under this node's
// per-hop key share, re-seals under whichever key the next node on the
// chain expects (the next transit's share, or k_pot_in[0] if this is the
// last transit before egress) with a freshly drawn nonce, advances the
// SRH, and forwards towards the egress SID. buf is released exactly
// once.
func Transit(cfg *potcfg.Config, counters *stats.Counters, port driver.Port, queue int, buf driver.Buffer) {
	scoped := driver.Acquire(buf)
	defer scoped.Release()

	frame, err := wire.ParseFrame(buf.Bytes())
	if err != nil {
		counters.IncError(potcfg.RoleTransit, errs.MalformedPacket)
		return
	}
	if frame.Eth.EthernetType != layers.EthernetTypeIPv6 || frame.SRH == nil || frame.SRH.RoutingType != wire.SRHRoutingType {
		counters.IncError(potcfg.RoleTransit, errs.MalformedPacket)
		return
	}
	if frame.SRH.SegmentsLeft == 0 {
		counters.IncError(potcfg.RoleTransit, errs.UnexpectedSegment)
		return
	}

	// i = num_transit_nodes - segments_left + 1, using the arrival value
	// of segments_left, selects this hop's per-hop key share.
	i := cfg.NumTransitNodes - int(frame.SRH.SegmentsLeft) + 1
	if i < 1 || i >= len(cfg.Keys) {
		counters.IncError(potcfg.RoleTransit, errs.UnexpectedSegment)
		return
	}

	h, err := potcrypto.DecryptPVF(cfg.Keys[i], frame.PoT.Nonce, frame.PoT.EncryptedHMAC)
	if err != nil {
		counters.IncError(potcfg.RoleTransit, errs.Crypto)
		return
	}

	nonce, err := potcrypto.Nonce()
	if err != nil {
		counters.IncError(potcfg.RoleTransit, errs.Crypto)
		return
	}
	// Re-seal under the key the *next* node on the chain will decrypt
	// with, not under this node's own key share: a later transit (or,
	// since this is the last one, egress's fixed k_pot_in[0]) otherwise
	// could never peel the layer this node just applied. AES-CTR is a
	// keystream XOR, so decrypting and re-encrypting under the same key
	// share is a no-op that only happens to cancel out when every key in
	// the chain is identical.
	nextKey := cfg.Keys[0]
	if i < cfg.NumTransitNodes {
		nextKey = cfg.Keys[i+1]
	}
	pvf, err := potcrypto.EncryptPVF(nextKey, nonce, h)
	if err != nil {
		counters.IncError(potcfg.RoleTransit, errs.Crypto)
		return
	}
	frame.PoT.Nonce = nonce
	frame.PoT.EncryptedHMAC = pvf

	frame.SRH.SegmentsLeft--

	// With a two-entry segment array, the only destination a transit can
	// advance to is the final (egress) segment; see DESIGN.md for why
	// the literal last_entry-segments_left+1 formula is not reused here.
	dst := append([]byte(nil), frame.SRH.Segments[frame.SRH.LastEntry].To16()...)
	frame.IP6.DstIP = dst

	forward(cfg, counters, scoped, port, queue, potcfg.RoleTransit, frame, dst)
}
