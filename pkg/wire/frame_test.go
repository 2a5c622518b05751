package wire

import (
	"bytes"
	"net"
	"testing"

	"github.com/gopacket/gopacket/layers"
)

func buildPlainFrame(t *testing.T, payload []byte) *Frame {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv6,
	}
	ip6 := &layers.IPv6{
		Version:    6,
		NextHeader: layers.IPProtocolUDP,
		HopLimit:   64,
		SrcIP:      net.ParseIP("2001:db8::1"),
		DstIP:      net.ParseIP("2001:db8::100"),
	}
	return &Frame{Eth: eth, IP6: ip6, Payload: payload}
}

func TestFrame_ParseSerializeRoundTrip_NoExtensions(t *testing.T) {
	payload := []byte("hello pot")
	raw, err := buildPlainFrame(t, payload).Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	f, err := ParseFrame(raw)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if f.HasExtensions() {
		t.Fatalf("HasExtensions = true, want false")
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Fatalf("Payload = %q, want %q", f.Payload, payload)
	}
}

func TestFrame_AddRemoveExtensionsRoundTrip(t *testing.T) {
	payload := []byte("hello pot")
	f := buildPlainFrame(t, payload)
	origNextHeader := f.IP6.NextHeader

	var segments [NumSegments]net.IP
	segments[0] = net.ParseIP("2001:db8::10")
	segments[1] = net.ParseIP("2001:db8::100")
	f.AddExtensions(segments, 1, 1)

	raw, err := f.Serialize()
	if err != nil {
		t.Fatalf("Serialize with extensions: %v", err)
	}

	parsed, err := ParseFrame(raw)
	if err != nil {
		t.Fatalf("ParseFrame with extensions: %v", err)
	}
	if !parsed.HasExtensions() {
		t.Fatalf("HasExtensions = false, want true")
	}
	if parsed.SRH.SegmentsLeft != NumSegments {
		t.Fatalf("SegmentsLeft = %d, want %d", parsed.SRH.SegmentsLeft, NumSegments)
	}
	if !parsed.SRH.Segments[1].Equal(segments[1]) {
		t.Fatalf("final segment = %s, want %s", parsed.SRH.Segments[1], segments[1])
	}
	if !bytes.Equal(parsed.Payload, payload) {
		t.Fatalf("Payload = %q, want %q", parsed.Payload, payload)
	}

	if err := parsed.RemoveExtensions(); err != nil {
		t.Fatalf("RemoveExtensions: %v", err)
	}
	if parsed.HasExtensions() {
		t.Fatalf("HasExtensions = true after removal, want false")
	}
	if parsed.IP6.NextHeader != origNextHeader {
		t.Fatalf("NextHeader = %v after removal, want %v", parsed.IP6.NextHeader, origNextHeader)
	}
}

func TestFrame_RemoveExtensions_NoneAttachedFails(t *testing.T) {
	f := buildPlainFrame(t, []byte("x"))
	if err := f.RemoveExtensions(); err == nil {
		t.Fatalf("RemoveExtensions on a frame with no extensions succeeded, want error")
	}
}
