// Package wire implements bit-exact parsing and construction of the
// Ethernet, IPv6, SRH, HMAC TLV and PoT TLV headers this node manipulates
// on the hot path. Ethernet and IPv6 use gopacket's own layers.Ethernet
// and layers.IPv6; the SRv6 extensions gopacket has no built-in decoder
// for (SRH, HMAC TLV, PoT TLV) are registered as their own
// gopacket.LayerType values in srh.go/hmactlv.go/pottlv.go, implementing
// gopacket.DecodingLayer and gopacket.SerializableLayer the same way the
// library's own layers do.
package wire

import "github.com/srv6pot/potnode/pkg/errs"

// Fixed sizes, big-endian on the wire throughout.
const (
	EthernetHeaderLen = 14
	IPv6HeaderLen     = 40

	SRHLen     = 40 // 8B fixed + 2x16B segments
	HMACTLVLen = 40
	PoTTLVLen  = 56

	// ExtensionsLen is the total bytes add_extensions prepends between the
	// IPv6 header and the inner payload.
	ExtensionsLen = SRHLen + HMACTLVLen + PoTTLVLen

	// NumSegments is fixed at two in this system: first-transit, egress.
	NumSegments = 2

	// EtherTypeIPv6 is the Ethernet EtherType value for an IPv6 payload.
	EtherTypeIPv6 = 0x86DD

	// NextHeaderRouting is the IPv6 next_header value set when the SRH is
	// attached (RFC 8200 Routing header type).
	NextHeaderRouting = 43

	// SRHNextHeaderPoT is the SRH.next_header value this implementation
	// uses to signal "the HMAC TLV and PoT TLV follow."
	SRHNextHeaderPoT = 61

	// SRHRoutingType is the SRv6 routing_type value (RFC 8754 says 4).
	SRHRoutingType = 4

	// NonceLen is the wire-exact PoT TLV nonce length.
	NonceLen = 16
	// HMACLen is the width of both the HMAC TLV's hmac_value and the PoT
	// TLV's encrypted_hmac (the PVF).
	HMACLen = 32

	hmacTLVType   = 0x08
	potTLVType    = 0x0F
	potNonceField = 16
)

func malformed(format string, args ...any) error {
	return errs.New(errs.MalformedPacket, format, args...)
}
