package wire

import (
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

// Frame is a parsed view over one Ethernet+IPv6(+SRH+HMAC TLV+PoT TLV)
// packet. SRH/HMAC/PoT are nil when the packet carries no extensions.
type Frame struct {
	Eth *layers.Ethernet
	IP6 *layers.IPv6
	SRH *SRH
	HMAC *HMACTLV
	PoT  *PoTTLV

	// Payload is everything past the last header this Frame knows about:
	// the inner L4 payload.
	Payload []byte
}

// HasExtensions reports whether the SRH+HMAC TLV+PoT TLV chain is present.
func (f *Frame) HasExtensions() bool { return f.SRH != nil }

// ParseFrame decodes Ethernet, IPv6, and — when IP6.NextHeader signals it
// — the SRH/HMAC TLV/PoT TLV chain from a raw frame.
func ParseFrame(data []byte) (*Frame, error) {
	eth, err := DecodeEthernet(data)
	if err != nil {
		return nil, err
	}
	ip6, err := DecodeIPv6(data[EthernetHeaderLen:])
	if err != nil {
		return nil, err
	}
	rest := ip6.LayerPayload()

	f := &Frame{Eth: eth, IP6: ip6}
	if uint8(ip6.NextHeader) != NextHeaderRouting {
		f.Payload = rest
		return f, nil
	}

	srh := &SRH{}
	if err := srh.DecodeFromBytes(rest, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	if srh.NextHeader != SRHNextHeaderPoT {
		return nil, malformed("srh: next_header %d != %d", srh.NextHeader, SRHNextHeaderPoT)
	}
	rest = srh.LayerPayload()

	hmacTLV := &HMACTLV{}
	if err := hmacTLV.DecodeFromBytes(rest, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	rest = hmacTLV.LayerPayload()

	potTLV := &PoTTLV{}
	if err := potTLV.DecodeFromBytes(rest, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	rest = potTLV.LayerPayload()

	f.SRH, f.HMAC, f.PoT = srh, hmacTLV, potTLV
	f.Payload = rest
	return f, nil
}

// Serialize re-encodes the frame (Ethernet+IPv6+extensions, if any,
// +payload) into a fresh buffer, honouring whatever mutations the caller
// has made to Eth/IP6/SRH/HMAC/PoT/Payload.
func (f *Frame) Serialize() ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()

	if _, err := buf.AppendBytes(len(f.Payload)); err != nil {
		return nil, err
	}
	copy(buf.Bytes(), f.Payload)

	opts := gopacket.SerializeOptions{}
	if f.HasExtensions() {
		if err := f.PoT.SerializeTo(buf, opts); err != nil {
			return nil, err
		}
		if err := f.HMAC.SerializeTo(buf, opts); err != nil {
			return nil, err
		}
		if err := f.SRH.SerializeTo(buf, opts); err != nil {
			return nil, err
		}
	}

	if err := SerializeIPv6(buf, f.IP6); err != nil {
		return nil, err
	}
	if err := SerializeEthernet(buf, f.Eth); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

// AddExtensions attaches a fresh, zeroed SRH+HMAC TLV+PoT TLV chain ahead
// of f.Payload, with the two SID segments and segments_left/last_entry set
// per §4.1. The IPv6 header's original next_header is preserved in the
// SRH's first reserved byte so RemoveExtensions can restore it exactly.
func (f *Frame) AddExtensions(segments [NumSegments]net.IP, keyID, keySetID uint32) {
	innerNextHeader := uint8(f.IP6.NextHeader)

	srh := &SRH{
		NextHeader:   SRHNextHeaderPoT,
		RoutingType:  SRHRoutingType,
		SegmentsLeft: NumSegments,
		LastEntry:    NumSegments - 1,
	}
	srh.Reserved[0] = innerNextHeader
	srh.HdrExtLen = uint8((2*16 + 8) / 8)
	for i := range segments {
		srh.Segments[i] = append(net.IP(nil), segments[i].To16()...)
	}

	f.SRH = srh
	f.HMAC = newHMACTLV(keyID)
	f.PoT = newPoTTLV(keySetID)
	f.IP6.NextHeader = layers.IPProtocol(NextHeaderRouting)
}

// RemoveExtensions strips the SRH+HMAC TLV+PoT TLV chain, restoring the
// IPv6 header's next_header to the value AddExtensions preserved.
func (f *Frame) RemoveExtensions() error {
	if !f.HasExtensions() {
		return malformed("remove_extensions: no extensions present")
	}
	f.IP6.NextHeader = layers.IPProtocol(f.SRH.Reserved[0])
	f.SRH, f.HMAC, f.PoT = nil, nil, nil
	return nil
}
