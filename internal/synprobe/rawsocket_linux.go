//go:build linux

package synprobe

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/vajra-scan/vajra/internal/scanerr"
)

// rawSocket wraps a single AF_INET SOCK_RAW socket with IP_HDRINCL set, so
// the kernel sends our hand-built IP header verbatim instead of prepending
// its own. Shared across every in-flight probe; the kernel multiplexes
// concurrent Sendto calls on one fd without issue.
type rawSocket struct {
	fd int
}

func newRawSocket() (*rawSocket, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_RAW)
	if err != nil {
		return nil, scanerr.Wrap(scanerr.KindPermissionDenied, "opening raw socket (need CAP_NET_RAW or root)", err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_HDRINCL, 1); err != nil {
		unix.Close(fd)
		return nil, scanerr.Wrap(scanerr.KindPermissionDenied, "setting IP_HDRINCL", err)
	}
	const sendBufBytes = 8 * 1024 * 1024
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, sendBufBytes)

	return &rawSocket{fd: fd}, nil
}

// send writes a prebuilt IPv4 packet to dst. Only IPv4 is supported: IPv6
// raw-socket SYN probing needs IPV6_HDRINCL plumbing this prober does not
// implement.
func (s *rawSocket) send(buf []byte, dst net.IP) error {
	v4 := dst.To4()
	if v4 == nil {
		return fmt.Errorf("synprobe: raw send requires an IPv4 destination, got %s", dst)
	}
	addr := &unix.SockaddrInet4{Addr: [4]byte{v4[0], v4[1], v4[2], v4[3]}}
	return unix.Sendto(s.fd, buf, 0, addr)
}

func (s *rawSocket) close() error {
	return unix.Close(s.fd)
}

// rawSocketAvailable reports whether this process can open a raw socket,
// used to decide at startup whether the SYN prober can run at all.
func rawSocketAvailable() bool {
	s, err := newRawSocket()
	if err != nil {
		return false
	}
	s.close()
	return true
}
