package wire

import (
	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

// DecodeIPv6 parses the 40-byte IPv6 header immediately following the
// Ethernet header. LayerPayload() on the result is everything after the
// fixed header: the SRH+TLVs+inner payload when extensions are attached,
// or the inner L4 payload directly otherwise. gopacket's IPv6 decoder
// records this regardless of whether NextHeader names a layer type this
// parser goes on to decode, so it is safe to read even for the
// SRv6-specific next_header values (43, 61) this codebase owns.
func DecodeIPv6(data []byte) (*layers.IPv6, error) {
	if len(data) < IPv6HeaderLen {
		return nil, malformed("ipv6: header truncated (%d bytes)", len(data))
	}
	ip6 := &layers.IPv6{}
	if err := ip6.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, malformed("ipv6: %v", err)
	}
	return ip6, nil
}

// SerializeIPv6 writes ip6's 40-byte header by prepending into buf. The
// caller must already have appended everything that follows the header
// (extensions+payload, or payload alone) so FixLengths can recompute
// payload length.
func SerializeIPv6(buf gopacket.SerializeBuffer, ip6 *layers.IPv6) error {
	return ip6.SerializeTo(buf, gopacket.SerializeOptions{FixLengths: true})
}
