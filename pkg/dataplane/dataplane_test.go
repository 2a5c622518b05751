package dataplane

import (
	"net"
	"testing"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/srv6pot/potnode/pkg/driver"
	"github.com/srv6pot/potnode/pkg/nexthop"
	"github.com/srv6pot/potnode/pkg/potcfg"
	"github.com/srv6pot/potnode/pkg/potcrypto"
	"github.com/srv6pot/potnode/pkg/stats"
	"github.com/srv6pot/potnode/pkg/wire"
)

var (
	srcMAC        = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	transitMAC    = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
	egressNodeMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x03}
	serverMAC     = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x04}

	clientAddr = net.ParseIP("2001:db8::1")
	// serverAddr doubles as the egress SID: standard SRv6 insertion-mode
	// practice is for the final segment to equal the packet's original
	// destination, so no separate "egress node address" exists and no
	// restore step is needed once segments_left reaches 0.
	serverAddr = net.ParseIP("2001:db8::100")
	transitSID = net.ParseIP("2001:db8::10")
)

// buildConfig returns a role-appropriate Config. Each role sees its own
// next-hop table because the same destination (serverAddr) resolves to a
// different physical next hop depending on which node is forwarding: the
// transit node's physical next hop towards it is the egress node, while
// the egress node's own table resolves it to the real server.
func buildConfig(t *testing.T, role potcfg.Role) *potcfg.Config {
	t.Helper()
	table := nexthop.New()
	switch role {
	case potcfg.RoleIngress:
		if err := table.Add(transitSID.String(), transitMAC.String()); err != nil {
			t.Fatalf("Add transit: %v", err)
		}
	case potcfg.RoleTransit:
		if err := table.Add(serverAddr.String(), egressNodeMAC.String()); err != nil {
			t.Fatalf("Add egress node: %v", err)
		}
	case potcfg.RoleEgress:
		if err := table.Add(serverAddr.String(), serverMAC.String()); err != nil {
			t.Fatalf("Add server: %v", err)
		}
	}

	var k0, k1 [potcrypto.KeyLen]byte
	for i := range k0 {
		k0[i] = byte(i)
	}
	for i := range k1 {
		k1[i] = byte(255 - i)
	}

	return &potcfg.Config{
		Role:            role,
		Bypass:          potcfg.BypassNone,
		NumTransitNodes: 1,
		SIDs:            [2]net.IP{transitSID, serverAddr},
		Keys:            [][potcrypto.KeyLen]byte{k0, k1},
		NextHops:        table,
	}
}

func buildClientFrame(t *testing.T) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       transitMAC,
		EthernetType: layers.EthernetTypeIPv6,
	}
	ip6 := &layers.IPv6{
		Version:    6,
		NextHeader: layers.IPProtocolUDP,
		HopLimit:   64,
		SrcIP:      clientAddr,
		DstIP:      serverAddr,
	}
	udp := &layers.UDP{SrcPort: 1234, DstPort: 5678}
	if err := udp.SetNetworkLayerForChecksum(ip6); err != nil {
		t.Fatalf("SetNetworkLayerForChecksum: %v", err)
	}
	payload := gopacket.Payload([]byte("hello"))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip6, udp, payload); err != nil {
		t.Fatalf("SerializeLayers: %v", err)
	}
	return append([]byte(nil), buf.Bytes()...)
}

func TestPipeline_IngressTransitEgress(t *testing.T) {
	pool := driver.NewPool()
	counters := stats.New()

	raw := buildClientFrame(t)
	buf, err := pool.AllocFrom(raw)
	if err != nil {
		t.Fatalf("AllocFrom: %v", err)
	}

	ingressCfg := buildConfig(t, potcfg.RoleIngress)
	ingressPort := &driver.TestPort{}
	Ingress(ingressCfg, counters, ingressPort, 0, buf)

	if len(ingressPort.Sent) != 1 {
		t.Fatalf("ingress sent %d packets, want 1", len(ingressPort.Sent))
	}

	transitCfg := buildConfig(t, potcfg.RoleTransit)
	transitPort := &driver.TestPort{}
	Transit(transitCfg, counters, transitPort, 0, ingressPort.Sent[0])

	if len(transitPort.Sent) != 1 {
		t.Fatalf("transit sent %d packets, want 1", len(transitPort.Sent))
	}

	egressCfg := buildConfig(t, potcfg.RoleEgress)
	egressPort := &driver.TestPort{}
	Egress(egressCfg, counters, egressPort, 0, transitPort.Sent[0])

	if len(egressPort.Sent) != 1 {
		t.Fatalf("egress sent %d packets, want 1", len(egressPort.Sent))
	}

	snap := counters.Snapshot()
	if snap.Delivered["ingress"] != 1 || snap.Delivered["transit"] != 1 || snap.Delivered["egress"] != 1 {
		t.Fatalf("delivered counters = %+v, want all 1", snap.Delivered)
	}
	if len(snap.Errors["egress"]) != 0 {
		t.Fatalf("egress errors = %+v, want none", snap.Errors["egress"])
	}
}

func TestEgress_TamperedPVFDropsWithHmacMismatch(t *testing.T) {
	pool := driver.NewPool()
	counters := stats.New()

	raw := buildClientFrame(t)
	buf, _ := pool.AllocFrom(raw)

	ingressCfg := buildConfig(t, potcfg.RoleIngress)
	ingressPort := &driver.TestPort{}
	Ingress(ingressCfg, counters, ingressPort, 0, buf)

	sealed := ingressPort.Sent[0]
	tampered := append([]byte(nil), sealed.Bytes()...)
	// Flip the first byte of pot.encrypted_hmac: Ethernet, IPv6, SRH and
	// HMAC TLV, then the PoT TLV's 8 header bytes and 16-byte nonce.
	pvfOffset := wire.EthernetHeaderLen + wire.IPv6HeaderLen + wire.SRHLen + wire.HMACTLVLen + 8 + wire.NonceLen
	tampered[pvfOffset] ^= 0xFF
	tamperedBuf, _ := pool.AllocFrom(tampered)

	transitCfg := buildConfig(t, potcfg.RoleTransit)
	transitPort := &driver.TestPort{}
	Transit(transitCfg, counters, transitPort, 0, tamperedBuf)
	if len(transitPort.Sent) != 1 {
		t.Fatalf("transit sent %d packets, want 1", len(transitPort.Sent))
	}

	egressCfg := buildConfig(t, potcfg.RoleEgress)
	egressPort := &driver.TestPort{}
	Egress(egressCfg, counters, egressPort, 0, transitPort.Sent[0])

	if len(egressPort.Sent) != 0 {
		t.Fatalf("egress sent %d packets after tamper, want 0", len(egressPort.Sent))
	}
	snap := counters.Snapshot()
	if snap.Errors["egress"]["hmac_mismatch"] != 1 {
		t.Fatalf("egress/hmac_mismatch = %d, want 1", snap.Errors["egress"]["hmac_mismatch"])
	}
}

func TestIngress_MissingNextHopDropsWithNoRoute(t *testing.T) {
	pool := driver.NewPool()
	counters := stats.New()
	raw := buildClientFrame(t)
	buf, _ := pool.AllocFrom(raw)

	cfg := buildConfig(t, potcfg.RoleIngress)
	cfg.NextHops = nexthop.New() // empty: no route to the first transit

	port := &driver.TestPort{}
	Ingress(cfg, counters, port, 0, buf)

	if len(port.Sent) != 0 {
		t.Fatalf("sent %d packets, want 0", len(port.Sent))
	}
	snap := counters.Snapshot()
	if snap.Errors["ingress"]["no_route"] != 1 {
		t.Fatalf("ingress/no_route = %d, want 1", snap.Errors["ingress"]["no_route"])
	}
}

func TestTransit_SegmentsLeftZeroDropsWithUnexpectedSegment(t *testing.T) {
	pool := driver.NewPool()
	counters := stats.New()
	raw := buildClientFrame(t)
	buf, _ := pool.AllocFrom(raw)

	ingressCfg := buildConfig(t, potcfg.RoleIngress)
	ingressPort := &driver.TestPort{}
	Ingress(ingressCfg, counters, ingressPort, 0, buf)

	// Route this already-in-flight packet to transit twice: the second
	// pass arrives with segments_left already 0.
	transitCfg := buildConfig(t, potcfg.RoleTransit)
	firstPort := &driver.TestPort{}
	Transit(transitCfg, counters, firstPort, 0, ingressPort.Sent[0])

	secondPort := &driver.TestPort{}
	Transit(transitCfg, counters, secondPort, 0, firstPort.Sent[0])

	if len(secondPort.Sent) != 0 {
		t.Fatalf("second transit pass sent %d packets, want 0", len(secondPort.Sent))
	}
	snap := counters.Snapshot()
	if snap.Errors["transit"]["unexpected_segment"] != 1 {
		t.Fatalf("transit/unexpected_segment = %d, want 1", snap.Errors["transit"]["unexpected_segment"])
	}
}
