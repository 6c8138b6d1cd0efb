// Package synprobe implements the raw-socket SYN scanner: build a bare SYN
// segment, hand it to the kernel on a shared IP_HDRINCL socket, and await a
// match from the capture subsystem's demux loop. Linux-only; on every other
// OS IsAvailable reports false and the orchestrator should fall back to
// connectprobe.
package synprobe

import (
	"context"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/vajra-scan/vajra/internal/capture"
	"github.com/vajra-scan/vajra/internal/codec"
	"github.com/vajra-scan/vajra/internal/model"
	"github.com/vajra-scan/vajra/internal/scanerr"
)

// Prober sends SYN segments over one shared raw socket and classifies
// whatever the capture loop delivers back. Safe for concurrent use: the
// socket, pending table, and semaphore are all already synchronized.
type Prober struct {
	pending *capture.PendingTable
	sem     chan struct{}
	timeout time.Duration
	retries int

	mu     sync.Mutex
	socket *rawSocket
}

// New returns a Prober bound to the given pending table (shared with the
// capture demux loop) with the given concurrency cap, per-probe timeout, and
// retry count.
func New(pending *capture.PendingTable, maxConcurrency int, timeout time.Duration, retries int) *Prober {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	if retries < 0 {
		retries = 0
	}
	return &Prober{
		pending: pending,
		sem:     make(chan struct{}, maxConcurrency),
		timeout: timeout,
		retries: retries,
	}
}

// IsAvailable reports whether this process can open the raw socket the
// prober needs (CAP_NET_RAW or root on Linux; always false elsewhere).
func IsAvailable() bool {
	return rawSocketAvailable()
}

func (p *Prober) ensureSocket() (*rawSocket, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket == nil {
		s, err := newRawSocket()
		if err != nil {
			return nil, err
		}
		p.socket = s
	}
	return p.socket, nil
}

// Probe wraps probeOnce in up to retries+1 attempts, returning the first
// non-Filtered result. A Filtered outcome on a SYN scan usually just means
// packet loss rather than a real firewall drop, so it's worth resending
// before giving up; a hard error (send failure, cancellation) is never
// retried and is returned immediately.
func (p *Prober) Probe(ctx context.Context, target model.Target) (model.ProbeResult, error) {
	var last model.ProbeResult
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(50*attempt) * time.Millisecond):
			case <-ctx.Done():
				return model.ProbeResult{}, ctx.Err()
			}
		}
		res, err := p.probeOnce(ctx, target)
		if err != nil {
			return model.ProbeResult{}, err
		}
		last = res
		if res.State != model.Filtered {
			return res, nil
		}
	}
	return last, nil
}

// probeOnce sends one SYN to target and waits for a classified response or
// timeout. Registration in the pending table happens before the packet is
// sent, so a reply that arrives within microseconds is never lost to a
// race between send and register.
func (p *Prober) probeOnce(ctx context.Context, target model.Target) (model.ProbeResult, error) {
	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		return model.ProbeResult{}, ctx.Err()
	}

	socket, err := p.ensureSocket()
	if err != nil {
		return model.ProbeResult{}, err
	}

	srcPort := uint16(32768 + rand.Intn(32768))
	seq := rand.Uint32()

	// 0.0.0.0 as a source address lets the kernel fill in the outbound
	// interface's address when it routes the packet; codec only needs a
	// same-family placeholder to build a structurally valid header.
	srcIP := placeholderSource(target.IP)

	packet, err := codec.BuildSYN(srcIP, target.IP, srcPort, target.Port, seq)
	if err != nil {
		return model.ProbeResult{}, err
	}

	key := capture.NewKey(target.IP, target.Port, srcPort, seq)
	start := time.Now()
	respCh := p.pending.Register(key)

	if err := socket.send(packet, target.IP); err != nil {
		p.pending.Forget(key)
		return model.ProbeResult{}, scanerr.Wrap(scanerr.KindNetwork, "sending SYN", err)
	}

	timeout := p.timeout
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining < timeout {
			timeout = remaining
		}
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			// Channel closed by the sweeper: no reply arrived before the
			// pending-table's own expiry, which is always >= our timeout.
			return model.NewProbeResult(target, model.Filtered), nil
		}
		return model.NewProbeResult(target, classify(resp)).WithRTT(resp.RTT), nil
	case <-time.After(timeout):
		p.pending.Forget(key)
		return model.NewProbeResult(target, model.Filtered).WithRTT(time.Since(start)), nil
	case <-ctx.Done():
		p.pending.Forget(key)
		return model.ProbeResult{}, ctx.Err()
	}
}

func classify(resp capture.Response) model.PortState {
	switch {
	case resp.SYN && resp.ACK:
		return model.Open
	case resp.RST:
		return model.Closed
	default:
		return model.Filtered
	}
}

// placeholderSource returns a same-family zero address; the real source IP
// is assigned by the kernel's routing table when it transmits the raw
// packet, so codec only needs a structurally valid stand-in to compute the
// IPv4 pseudo-header checksum against.
func placeholderSource(dst net.IP) net.IP {
	if dst.To4() != nil {
		return net.IPv4zero
	}
	return net.IPv6zero
}
