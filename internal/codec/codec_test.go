package codec

import (
	"net"
	"testing"

	"github.com/google/gopacket/layers"
)

func TestBuildSYNv4(t *testing.T) {
	srcIP := net.ParseIP("10.0.0.1")
	dstIP := net.ParseIP("8.8.8.8")

	data, err := BuildSYN(srcIP, dstIP, 12345, 80, 1000)
	if err != nil {
		t.Fatalf("BuildSYN failed: %v", err)
	}

	parsed, err := Parse(data, layers.LayerTypeIPv4)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed == nil {
		t.Fatal("Parse returned nil for a valid SYN segment")
	}
	if !parsed.SYN {
		t.Error("built packet is not a SYN")
	}
	if parsed.DstPort != 80 {
		t.Errorf("expected dst port 80, got %d", parsed.DstPort)
	}
	if !parsed.DstIP.Equal(dstIP) {
		t.Errorf("expected dst IP %s, got %s", dstIP, parsed.DstIP)
	}
	if parsed.Seq != 1000 {
		t.Errorf("expected seq 1000, got %d", parsed.Seq)
	}
}

func TestBuildSYNv6(t *testing.T) {
	srcIP := net.ParseIP("::1")
	dstIP := net.ParseIP("2001:db8::2")

	data, err := BuildSYN(srcIP, dstIP, 5000, 443, 9999)
	if err != nil {
		t.Fatalf("BuildSYN failed: %v", err)
	}

	parsed, err := Parse(data, layers.LayerTypeIPv6)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed == nil {
		t.Fatal("Parse returned nil for a valid SYN segment")
	}
	if !parsed.DstIP.Equal(dstIP) {
		t.Errorf("expected dst IP %s, got %s", dstIP, parsed.DstIP)
	}
	if parsed.DstPort != 443 {
		t.Errorf("expected dst port 443, got %d", parsed.DstPort)
	}
}

func TestBuildSYNMismatchedFamily(t *testing.T) {
	srcIP := net.ParseIP("10.0.0.1")
	dstIP := net.ParseIP("2001:db8::2")

	if _, err := BuildSYN(srcIP, dstIP, 1, 2, 3); err == nil {
		t.Error("expected an error for mismatched address families")
	}
}

func TestChecksumRoundTrip(t *testing.T) {
	hdr := []byte{
		0x45, 0x00, 0x00, 0x2C,
		0x00, 0x01, 0x40, 0x00,
		0x40, 0x06, 0x00, 0x00,
		0x0A, 0x00, 0x00, 0x01,
		0x08, 0x08, 0x08, 0x08,
	}
	cksum := Checksum(hdr)
	if cksum == 0 {
		t.Fatal("checksum of a non-zero header should not be zero")
	}
	hdr[10] = byte(cksum >> 8)
	hdr[11] = byte(cksum)
	if verify := Checksum(hdr); verify != 0 {
		t.Errorf("checksum verification failed: got 0x%04x, want 0", verify)
	}
}
