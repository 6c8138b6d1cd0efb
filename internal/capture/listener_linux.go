//go:build linux

package capture

import (
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/afpacket"
	"github.com/google/gopacket/pcap"
	"golang.org/x/net/bpf"
)

// afpacketHandle wraps *afpacket.TPacket to implement Handle.
type afpacketHandle struct {
	tp *afpacket.TPacket
}

func (h *afpacketHandle) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	return h.tp.ZeroCopyReadPacketData()
}

func (h *afpacketHandle) Close() {
	h.tp.Close()
}

// pcapHandle wraps *pcap.Handle for tunnel interfaces where AF_PACKET
// doesn't deliver frames (GRE, SIT, WireGuard, and the like).
type pcapHandle struct {
	h *pcap.Handle
}

func (h *pcapHandle) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	return h.h.ZeroCopyReadPacketData()
}

func (h *pcapHandle) Close() {
	h.h.Close()
}

// NewListener opens a page-aligned TPacket V2 handle (AF_PACKET), the
// fastest capture path for Ethernet interfaces.
func NewListener(iface string) (*Listener, error) {
	handle, err := afpacket.NewTPacket(
		afpacket.OptInterface(iface),
		afpacket.OptFrameSize(2048),
		afpacket.OptBlockSize(1024*1024),
		afpacket.OptNumBlocks(128),
		afpacket.OptPollTimeout(1*time.Millisecond),
		afpacket.OptTPacketVersion(afpacket.TPacketVersion2),
	)
	if err != nil {
		return nil, fmt.Errorf("capture: afpacket init on %s: %w", iface, err)
	}

	return &Listener{Handle: &afpacketHandle{tp: handle}}, nil
}

// NewTunnelListener opens a pcap-based listener for tunnel interfaces.
// AF_PACKET cannot reliably capture on these; pcap handles cooked capture
// (LINUX_SLL) correctly.
func NewTunnelListener(iface string) (*Listener, error) {
	handle, err := pcap.OpenLive(iface, 2048, true, 1*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("capture: pcap open on %s: %w", iface, err)
	}
	return &Listener{Handle: &pcapHandle{h: handle}, UseSLL: true}, nil
}

// SetBPF installs a capture filter to keep only inbound TCP packets to our
// ephemeral source ports on the demux path.
func (l *Listener) SetBPF(iface, filter string) error {
	switch h := l.Handle.(type) {
	case *afpacketHandle:
		pcapHandle, err := pcap.OpenLive(iface, 1600, true, pcap.BlockForever)
		if err != nil {
			return err
		}
		defer pcapHandle.Close()

		bpfInsts, err := pcapHandle.CompileBPFFilter(filter)
		if err != nil {
			return err
		}

		raw := make([]bpf.RawInstruction, len(bpfInsts))
		for i, ins := range bpfInsts {
			raw[i] = bpf.RawInstruction{Op: ins.Code, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
		}
		return h.tp.SetBPF(raw)

	case *pcapHandle:
		return h.h.SetBPFFilter(filter)

	default:
		return fmt.Errorf("capture: unsupported handle type for BPF")
	}
}

// SocketStats returns AF_PACKET ring buffer statistics (packets received,
// dropped by the kernel before reaching userspace).
func (l *Listener) SocketStats() (received, dropped uint64) {
	switch h := l.Handle.(type) {
	case *afpacketHandle:
		_, stats, err := h.tp.SocketStats()
		if err != nil {
			return 0, 0
		}
		return uint64(stats.Packets()), uint64(stats.Drops())
	default:
		return 0, 0
	}
}
