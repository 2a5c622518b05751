package wire

import (
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

// IsMulticastOrBroadcast reports whether mac has the multicast/broadcast
// bit set (the least significant bit of the first octet), per the ingress
// and egress L2 filtering rule.
func IsMulticastOrBroadcast(mac net.HardwareAddr) bool {
	return len(mac) > 0 && mac[0]&0x01 != 0
}

// DecodeEthernet parses the 14-byte Ethernet header at the front of data.
func DecodeEthernet(data []byte) (*layers.Ethernet, error) {
	if len(data) < EthernetHeaderLen {
		return nil, malformed("ethernet: frame too short (%d bytes)", len(data))
	}
	eth := &layers.Ethernet{}
	if err := eth.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, malformed("ethernet: %v", err)
	}
	return eth, nil
}

// SerializeEthernet writes eth's 14-byte header by prepending into buf.
func SerializeEthernet(buf gopacket.SerializeBuffer, eth *layers.Ethernet) error {
	return eth.SerializeTo(buf, gopacket.SerializeOptions{FixLengths: true})
}
