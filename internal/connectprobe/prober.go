// Package connectprobe implements the plain TCP-connect prober: the
// fallback path that needs no raw socket and works on any OS or
// unprivileged user.
package connectprobe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vajra-scan/vajra/internal/model"
)

// Prober opens a TCP connection per target and classifies the outcome.
// Immutable after construction; safe for concurrent use by many workers.
type Prober struct {
	timeout       time.Duration
	retries       int
	bannerTimeout time.Duration
}

// New returns a Prober with the package defaults: 800ms connect timeout, no
// retries (concurrency does the work retries would), 300ms banner timeout.
func New() Prober {
	return Prober{
		timeout:       800 * time.Millisecond,
		retries:       0,
		bannerTimeout: 300 * time.Millisecond,
	}
}

func (p Prober) WithTimeout(timeout time.Duration) Prober {
	p.timeout = timeout
	return p
}

func (p Prober) WithRetries(retries int) Prober {
	p.retries = retries
	return p
}

func (p Prober) WithBannerTimeout(timeout time.Duration) Prober {
	p.bannerTimeout = timeout
	return p
}

// bannerPorts are the ports worth spending a banner-grab round trip on.
var bannerPorts = map[uint16]bool{
	21: true, 22: true, 25: true, 80: true, 110: true, 143: true, 443: true,
	465: true, 587: true, 993: true, 995: true, 3306: true, 5432: true,
	6379: true, 27017: true, 9200: true, 8080: true, 8443: true, 8000: true,
	8888: true, 9000: true,
}

// Probe connects to target and returns a ProbeResult. Context cancellation
// aborts any in-flight connect attempt.
func (p Prober) Probe(ctx context.Context, target model.Target) model.ProbeResult {
	addr := net.JoinHostPort(target.IP.String(), strconv.Itoa(int(target.Port)))
	start := time.Now()

	conn, err := p.tryConnect(ctx, addr)
	rtt := time.Since(start)
	if err != nil {
		state := classifyError(err, rtt, p.timeout)
		return model.NewProbeResult(target, state).WithRTT(rtt)
	}
	defer conn.Close()

	result := model.NewProbeResult(target, model.Open).WithRTT(rtt)
	if bannerPorts[target.Port] {
		if banner, ok := p.grabBanner(conn); ok {
			result = result.WithBanner(banner)
		}
	}
	return result
}

// tryConnect mirrors nmap's escalation: a short initial attempt detects
// closed ports fast (they RST almost instantly), then a single retry at
// the full timeout catches targets that are merely slow, not filtered.
// With retries configured, each subsequent attempt backs off linearly.
func (p Prober) tryConnect(ctx context.Context, addr string) (net.Conn, error) {
	initialTimeout := p.timeout
	if initialTimeout > 400*time.Millisecond {
		initialTimeout = 400 * time.Millisecond
	}

	if p.retries == 0 {
		conn, err := dialTimeout(ctx, addr, initialTimeout)
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, err
		}
		// Timed out or some other transient error on the fast path: give
		// it one more shot at the full timeout before calling it filtered.
		return dialTimeout(ctx, addr, p.timeout)
	}

	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(50*attempt) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		attemptTimeout := p.timeout
		if attempt == 0 {
			attemptTimeout = initialTimeout
		}
		conn, err := dialTimeout(ctx, addr, attemptTimeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func dialTimeout(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var d net.Dialer
	return d.DialContext(dialCtx, "tcp", addr)
}

// classifyError turns a failed dial into a PortState. Connection refused is
// an immediate, reliable signal the port is closed; everything that looks
// like a timeout is filtered; a fast failure that isn't a clean refusal
// (e.g. an ICMP host-unreachable surfaced as a different errno) is treated
// as closed if it came back quickly, filtered otherwise.
func classifyError(err error, rtt, timeout time.Duration) model.PortState {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return model.Closed
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.Filtered
	}
	if rtt >= timeout {
		return model.Filtered
	}
	if rtt < 100*time.Millisecond {
		return model.Closed
	}
	return model.Filtered
}

// grabBanner reads whatever the service says first; if nothing arrives
// within half the banner timeout it sends a generic HTTP probe and reads
// again. Protocol-specific active probes are out of scope — one passive
// read plus one generic active probe covers the common services without
// needing per-protocol logic.
func (p Prober) grabBanner(conn net.Conn) (string, bool) {
	buf := make([]byte, 512)
	shortTimeout := p.bannerTimeout / 2

	conn.SetReadDeadline(time.Now().Add(shortTimeout))
	if n, err := conn.Read(buf); err == nil && n > 0 {
		return strings.TrimSpace(string(buf[:n])), true
	}

	conn.SetWriteDeadline(time.Now().Add(100 * time.Millisecond))
	if _, err := conn.Write([]byte("GET / HTTP/1.0\r\n\r\n")); err != nil {
		return "", false
	}

	conn.SetReadDeadline(time.Now().Add(shortTimeout))
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return "", false
	}
	return strings.TrimSpace(string(buf[:n])), true
}
