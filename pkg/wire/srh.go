package wire

import (
	"net"

	"github.com/gopacket/gopacket"
)

// LayerTypeSRH is this codebase's registered gopacket.LayerType for the
// Segment Routing Header, participating in the same decoding/serializing
// framework layers.Ethernet and layers.IPv6 already use.
var LayerTypeSRH = gopacket.RegisterLayerType(6001, gopacket.LayerTypeMetadata{
	Name:    "SRH",
	Decoder: gopacket.DecodeFunc(decodeSRH),
})

// SRH is the fixed 40-byte Segment Routing Header this system attaches:
// an 8-byte fixed part followed by exactly two 16-byte segment entries.
type SRH struct {
	gopacket.BaseLayer
	NextHeader   uint8
	HdrExtLen    uint8
	RoutingType  uint8
	SegmentsLeft uint8
	LastEntry    uint8
	Flags        uint8
	Reserved     [2]byte
	Segments     [NumSegments]net.IP
}

func (s *SRH) LayerType() gopacket.LayerType   { return LayerTypeSRH }
func (s *SRH) CanDecode() gopacket.LayerClass  { return LayerTypeSRH }
func (s *SRH) NextLayerType() gopacket.LayerType { return LayerTypeHMACTLV }

// DecodeFromBytes reads the 40-byte SRH from the front of data, the
// gopacket.DecodingLayer entry point.
func (s *SRH) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < SRHLen {
		return malformed("srh: truncated (%d bytes, want %d)", len(data), SRHLen)
	}
	s.NextHeader = data[0]
	s.HdrExtLen = data[1]
	s.RoutingType = data[2]
	s.SegmentsLeft = data[3]
	s.LastEntry = data[4]
	s.Flags = data[5]
	copy(s.Reserved[:], data[6:8])
	for i := 0; i < NumSegments; i++ {
		off := 8 + i*16
		ip := make(net.IP, 16)
		copy(ip, data[off:off+16])
		s.Segments[i] = ip
	}
	if s.RoutingType != SRHRoutingType {
		return malformed("srh: routing_type %d != %d", s.RoutingType, SRHRoutingType)
	}
	if s.SegmentsLeft > s.LastEntry+1 {
		return malformed("srh: segments_left %d > last_entry+1 %d", s.SegmentsLeft, s.LastEntry+1)
	}
	s.BaseLayer = gopacket.BaseLayer{Contents: data[:SRHLen], Payload: data[SRHLen:]}
	return nil
}

// SerializeTo writes the SRH's 40 bytes ahead of whatever buf already
// holds, the gopacket.SerializableLayer entry point.
func (s *SRH) SerializeTo(buf gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	dst, err := buf.PrependBytes(SRHLen)
	if err != nil {
		return err
	}
	dst[0] = s.NextHeader
	dst[1] = s.HdrExtLen
	dst[2] = s.RoutingType
	dst[3] = s.SegmentsLeft
	dst[4] = s.LastEntry
	dst[5] = s.Flags
	copy(dst[6:8], s.Reserved[:])
	for i := 0; i < NumSegments; i++ {
		off := 8 + i*16
		seg := s.Segments[i].To16()
		copy(dst[off:off+16], seg)
	}
	return nil
}

func decodeSRH(data []byte, p gopacket.PacketBuilder) error {
	srh := &SRH{}
	if err := srh.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(srh)
	return p.NextDecoder(srh.NextLayerType())
}

// preimageBytes returns the SRH's 40 bytes as fed into the HMAC preimage:
// identical to the wire encoding except segments_left is zeroed. The wire
// copy of segments_left (s.SegmentsLeft) is never mutated by this call.
func (s *SRH) preimageBytes() [SRHLen]byte {
	clone := *s
	clone.SegmentsLeft = 0
	buf := gopacket.NewSerializeBuffer()
	_ = clone.SerializeTo(buf, gopacket.SerializeOptions{})
	var out [SRHLen]byte
	copy(out[:], buf.Bytes())
	return out
}
