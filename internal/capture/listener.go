// Package capture runs the dedicated packet-capture thread the SYN prober
// shares across all its probes. A single Loop reads one Listener and
// demultiplexes every inbound TCP segment against a table of pending probes
// rather than opening one socket per probe.
package capture

import "github.com/google/gopacket"

// Handle abstracts AF_PACKET (linux) vs pcap (darwin/tunnel interfaces) so
// the demux loop doesn't need a build-tag switch of its own.
type Handle interface {
	ReadPacket() ([]byte, gopacket.CaptureInfo, error)
	Close()
}

// Listener owns the capture handle for one interface.
type Listener struct {
	Handle Handle
	UseSLL bool // true when pcap delivers Linux cooked capture (SLL) framing
}

func (l *Listener) Close() { l.Handle.Close() }
