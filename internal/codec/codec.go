// Package codec builds and parses the raw IPv4/IPv6 + TCP packets used by
// the SYN prober. All functions are stateless and safe for concurrent use;
// each call builds into its own gopacket.SerializeBuffer.
package codec

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// BuildSYN serializes an IP+TCP SYN segment ready for a raw IP_HDRINCL
// socket (no link layer). srcIP and dstIP must be the same family; mixing
// v4/v6 is an error. Returns the wire bytes.
func BuildSYN(srcIP, dstIP net.IP, srcPort, dstPort uint16, seq uint32) ([]byte, error) {
	v4src, v6src := classify(srcIP)
	v4dst, v6dst := classify(dstIP)

	switch {
	case v4src && v4dst:
		return buildV4(srcIP, dstIP, srcPort, dstPort, seq, tcpFlagsSYN)
	case v6src && v6dst:
		return buildV6(srcIP, dstIP, srcPort, dstPort, seq, tcpFlagsSYN)
	default:
		return nil, fmt.Errorf("codec: mismatched or invalid address family (src=%s dst=%s)", srcIP, dstIP)
	}
}

type tcpFlags struct {
	syn, ack, rst, fin bool
}

var tcpFlagsSYN = tcpFlags{syn: true}

func classify(ip net.IP) (isV4, isV6 bool) {
	if ip == nil {
		return false, false
	}
	if v4 := ip.To4(); v4 != nil {
		return true, false
	}
	if ip.To16() != nil {
		return false, true
	}
	return false, false
}

func buildV4(srcIP, dstIP net.IP, srcPort, dstPort uint16, seq uint32, flags tcpFlags) ([]byte, error) {
	ip4 := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Id:       uint16(seq),
		Flags:    layers.IPv4DontFragment,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    srcIP.To4(),
		DstIP:    dstIP.To4(),
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     seq,
		SYN:     flags.syn,
		ACK:     flags.ack,
		RST:     flags.rst,
		FIN:     flags.fin,
		Window:  65535,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip4); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, ip4, tcp); err != nil {
		return nil, err
	}
	out := make([]byte, len(buf.Bytes()))
	copy(out, buf.Bytes())
	return out, nil
}

func buildV6(srcIP, dstIP net.IP, srcPort, dstPort uint16, seq uint32, flags tcpFlags) ([]byte, error) {
	ip6 := &layers.IPv6{
		Version:    6,
		HopLimit:   64,
		NextHeader: layers.IPProtocolTCP,
		SrcIP:      srcIP.To16(),
		DstIP:      dstIP.To16(),
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     seq,
		SYN:     flags.syn,
		ACK:     flags.ack,
		RST:     flags.rst,
		FIN:     flags.fin,
		Window:  65535,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip6); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, ip6, tcp); err != nil {
		return nil, err
	}
	out := make([]byte, len(buf.Bytes()))
	copy(out, buf.Bytes())
	return out, nil
}

// Parsed holds the fields the capture subsystem needs out of a captured
// packet: enough to match it against the pending-probe table and classify
// the response.
type Parsed struct {
	SrcIP   net.IP
	DstIP   net.IP
	SrcPort uint16
	DstPort uint16
	SYN     bool
	ACK     bool
	RST     bool
	FIN     bool
	Seq     uint32
	Ack     uint32
}

// Parse decodes a captured frame. firstLayer selects how the outermost
// layer is interpreted — layers.LayerTypeEthernet for afpacket captures,
// layers.LayerTypeIPv4/LayerTypeIPv6 for tunnel/loopback captures that hand
// back a bare IP packet. Returns nil, nil if the frame isn't an IPv4/IPv6
// TCP segment — not every packet on the wire belongs to a probe.
func Parse(data []byte, firstLayer gopacket.Decoder) (*Parsed, error) {
	packet := gopacket.NewPacket(data, firstLayer, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return nil, nil
	}
	tcp, ok := tcpLayer.(*layers.TCP)
	if !ok {
		return nil, nil
	}

	var srcIP, dstIP net.IP
	if ip4 := packet.Layer(layers.LayerTypeIPv4); ip4 != nil {
		l := ip4.(*layers.IPv4)
		srcIP, dstIP = l.SrcIP, l.DstIP
	} else if ip6 := packet.Layer(layers.LayerTypeIPv6); ip6 != nil {
		l := ip6.(*layers.IPv6)
		srcIP, dstIP = l.SrcIP, l.DstIP
	} else {
		return nil, nil
	}

	return &Parsed{
		SrcIP:   srcIP,
		DstIP:   dstIP,
		SrcPort: uint16(tcp.SrcPort),
		DstPort: uint16(tcp.DstPort),
		SYN:     tcp.SYN,
		ACK:     tcp.ACK,
		RST:     tcp.RST,
		FIN:     tcp.FIN,
		Seq:     tcp.Seq,
		Ack:     tcp.Ack,
	}, nil
}

// Checksum computes the Internet checksum (RFC 1071) of data. Exposed for
// round-trip tests against gopacket's own checksum computation; production
// code relies on gopacket.SerializeOptions.ComputeChecksums instead.
func Checksum(data []byte) uint16 {
	var sum uint32
	n := len(data)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
	}
	if n%2 == 1 {
		sum += uint32(data[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}
