//go:build !linux

package synprobe

import (
	"net"

	"github.com/vajra-scan/vajra/internal/scanerr"
)

// rawSocket is a non-functional stand-in on platforms other than Linux.
// Raw-socket SYN probing needs IP_HDRINCL and AF_PACKET capture semantics
// this prober only implements for Linux; everywhere else the orchestrator
// falls back to the connect prober.
type rawSocket struct{}

func newRawSocket() (*rawSocket, error) {
	return nil, scanerr.New(scanerr.KindScannerUnavailable, "SYN prober is only implemented on linux")
}

func (s *rawSocket) send(buf []byte, dst net.IP) error {
	return scanerr.New(scanerr.KindScannerUnavailable, "SYN prober is only implemented on linux")
}

func (s *rawSocket) close() error { return nil }

func rawSocketAvailable() bool { return false }
