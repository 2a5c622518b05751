package wire

import "github.com/gopacket/gopacket"

// LayerTypePoTTLV is this codebase's registered gopacket.LayerType for
// the Proof-of-Transit TLV extension, the last of the chain before the
// inner payload.
var LayerTypePoTTLV = gopacket.RegisterLayerType(6003, gopacket.LayerTypeMetadata{
	Name:    "PoTTLV",
	Decoder: gopacket.DecodeFunc(decodePoTTLV),
})

// PoTTLV is the fixed 56-byte Proof-of-Transit TLV extension.
type PoTTLV struct {
	gopacket.BaseLayer
	Type          uint8
	Length        uint8
	Reserved      uint8
	NonceLength   uint8
	KeySetID      uint32
	Nonce         [NonceLen]byte
	EncryptedHMAC [HMACLen]byte // the PVF
}

func (p *PoTTLV) LayerType() gopacket.LayerType    { return LayerTypePoTTLV }
func (p *PoTTLV) CanDecode() gopacket.LayerClass   { return LayerTypePoTTLV }
func (p *PoTTLV) NextLayerType() gopacket.LayerType { return gopacket.LayerTypePayload }

// DecodeFromBytes reads the 56-byte PoT TLV from the front of data.
func (p *PoTTLV) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < PoTTLVLen {
		return malformed("pot tlv: truncated (%d bytes, want %d)", len(data), PoTTLVLen)
	}
	p.Type = data[0]
	p.Length = data[1]
	p.Reserved = data[2]
	p.NonceLength = data[3]
	p.KeySetID = uint32(data[4])<<24 | uint32(data[5])<<16 | uint32(data[6])<<8 | uint32(data[7])
	copy(p.Nonce[:], data[8:8+NonceLen])
	copy(p.EncryptedHMAC[:], data[8+NonceLen:8+NonceLen+HMACLen])
	if p.NonceLength != potNonceField {
		return malformed("pot tlv: nonce_length %d != %d", p.NonceLength, potNonceField)
	}
	p.BaseLayer = gopacket.BaseLayer{Contents: data[:PoTTLVLen], Payload: data[PoTTLVLen:]}
	return nil
}

// SerializeTo writes the PoT TLV's 56 bytes ahead of whatever buf
// already holds.
func (p *PoTTLV) SerializeTo(buf gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	dst, err := buf.PrependBytes(PoTTLVLen)
	if err != nil {
		return err
	}
	dst[0] = p.Type
	dst[1] = p.Length
	dst[2] = p.Reserved
	dst[3] = p.NonceLength
	dst[4] = byte(p.KeySetID >> 24)
	dst[5] = byte(p.KeySetID >> 16)
	dst[6] = byte(p.KeySetID >> 8)
	dst[7] = byte(p.KeySetID)
	copy(dst[8:8+NonceLen], p.Nonce[:])
	copy(dst[8+NonceLen:8+NonceLen+HMACLen], p.EncryptedHMAC[:])
	return nil
}

func decodePoTTLV(data []byte, pb gopacket.PacketBuilder) error {
	p := &PoTTLV{}
	if err := p.DecodeFromBytes(data, pb); err != nil {
		return err
	}
	pb.AddLayer(p)
	return pb.NextDecoder(p.NextLayerType())
}

// newPoTTLV builds the zeroed PoT TLV attached by add_extensions.
func newPoTTLV(keySetID uint32) *PoTTLV {
	return &PoTTLV{
		Type:        potTLVType,
		Length:      PoTTLVLen - 2,
		NonceLength: potNonceField,
		KeySetID:    keySetID,
	}
}
