package wire

import "github.com/gopacket/gopacket"

// LayerTypeHMACTLV is this codebase's registered gopacket.LayerType for
// the HMAC TLV extension.
var LayerTypeHMACTLV = gopacket.RegisterLayerType(6002, gopacket.LayerTypeMetadata{
	Name:    "HMACTLV",
	Decoder: gopacket.DecodeFunc(decodeHMACTLV),
})

// HMACTLV is the fixed 40-byte HMAC TLV extension.
type HMACTLV struct {
	gopacket.BaseLayer
	Type      uint8
	Length    uint8
	DFlag     bool
	KeyID     uint32
	HMACValue [HMACLen]byte
}

func (h *HMACTLV) LayerType() gopacket.LayerType    { return LayerTypeHMACTLV }
func (h *HMACTLV) CanDecode() gopacket.LayerClass   { return LayerTypeHMACTLV }
func (h *HMACTLV) NextLayerType() gopacket.LayerType { return LayerTypePoTTLV }

// DecodeFromBytes reads the 40-byte HMAC TLV from the front of data.
func (h *HMACTLV) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < HMACTLVLen {
		return malformed("hmac tlv: truncated (%d bytes, want %d)", len(data), HMACTLVLen)
	}
	flagsAndReserved := uint16(data[2])<<8 | uint16(data[3])
	h.Type = data[0]
	h.Length = data[1]
	h.DFlag = flagsAndReserved&0x8000 != 0
	h.KeyID = uint32(data[4])<<24 | uint32(data[5])<<16 | uint32(data[6])<<8 | uint32(data[7])
	copy(h.HMACValue[:], data[8:8+HMACLen])
	h.BaseLayer = gopacket.BaseLayer{Contents: data[:HMACTLVLen], Payload: data[HMACTLVLen:]}
	return nil
}

// SerializeTo writes the HMAC TLV's 40 bytes ahead of whatever buf
// already holds.
func (h *HMACTLV) SerializeTo(buf gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	dst, err := buf.PrependBytes(HMACTLVLen)
	if err != nil {
		return err
	}
	dst[0] = h.Type
	dst[1] = h.Length
	var flagsAndReserved uint16
	if h.DFlag {
		flagsAndReserved |= 0x8000
	}
	dst[2] = byte(flagsAndReserved >> 8)
	dst[3] = byte(flagsAndReserved)
	dst[4] = byte(h.KeyID >> 24)
	dst[5] = byte(h.KeyID >> 16)
	dst[6] = byte(h.KeyID >> 8)
	dst[7] = byte(h.KeyID)
	copy(dst[8:8+HMACLen], h.HMACValue[:])
	return nil
}

func decodeHMACTLV(data []byte, p gopacket.PacketBuilder) error {
	h := &HMACTLV{}
	if err := h.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(h)
	return p.NextDecoder(h.NextLayerType())
}

// headerBytes returns the 8 bytes "up to but not including hmac_value"
// that the HMAC preimage includes.
func (h *HMACTLV) headerBytes() [8]byte {
	buf := gopacket.NewSerializeBuffer()
	_ = h.SerializeTo(buf, gopacket.SerializeOptions{})
	var out [8]byte
	copy(out[:], buf.Bytes()[:8])
	return out
}

// newHMACTLV builds the zeroed HMAC TLV attached by add_extensions.
func newHMACTLV(keyID uint32) *HMACTLV {
	return &HMACTLV{
		Type:   hmacTLVType,
		Length: HMACTLVLen - 2, // TLV length excludes type+length themselves
		KeyID:  keyID,
	}
}
