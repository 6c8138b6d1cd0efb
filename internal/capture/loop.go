package capture

import (
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/vajra-scan/vajra/internal/codec"
)

// Stats are the demux loop's running counters, read concurrently by
// whatever reports scan progress.
type Stats struct {
	PacketsReceived uint64
	PacketsMatched  uint64
	PacketsNoMatch  uint64
	PacketsDropped  uint64
}

// Loop owns one Listener and the PendingTable it demultiplexes captured
// packets against. Runs on a dedicated OS thread (via LockOSThread) so the
// blocking read syscall never competes with the Go scheduler for a worker
// goroutine's M.
type Loop struct {
	listener *Listener
	pending  *PendingTable

	received uint64
	matched  uint64
	noMatch  uint64
	dropped  uint64

	stop chan struct{}
	done chan struct{}
}

// NewLoop binds a demux loop to a listener and pending table. Call Run in
// its own goroutine.
func NewLoop(listener *Listener, pending *PendingTable) *Loop {
	return &Loop{
		listener: listener,
		pending:  pending,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run reads packets until Stop is called. Intended to be launched with
// `go loop.Run()`.
func (l *Loop) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.done)

	var firstLayer gopacket.Decoder = layers.LayerTypeEthernet
	if l.listener.UseSLL {
		firstLayer = layers.LayerTypeLinuxSLL
	}

	for {
		select {
		case <-l.stop:
			return
		default:
		}

		data, _, err := l.listener.Handle.ReadPacket()
		if err != nil {
			// The listener's own poll timeout (configured at open) is the
			// normal idle case, not a real failure; a short sleep keeps
			// this loop from spinning the dedicated thread at 100% CPU
			// while still polling far more often than any probe timeout.
			if !isTimeout(err) {
				atomic.AddUint64(&l.dropped, 1)
			}
			time.Sleep(50 * time.Microsecond)
			continue
		}
		if len(data) == 0 {
			continue
		}
		atomic.AddUint64(&l.received, 1)

		parsed, err := codec.Parse(data, firstLayer)
		if err != nil || parsed == nil {
			continue
		}
		if !parsed.SYN && !parsed.RST && !parsed.ACK {
			continue
		}

		resp := Response{SYN: parsed.SYN, ACK: parsed.ACK, RST: parsed.RST, FIN: parsed.FIN}
		n := l.pending.Deliver(parsed.SrcIP, parsed.SrcPort, parsed.DstPort, resp)
		if n > 0 {
			atomic.AddUint64(&l.matched, uint64(n))
		} else {
			atomic.AddUint64(&l.noMatch, 1)
		}
	}
}

// Stop signals Run to exit and blocks until it has.
func (l *Loop) Stop() {
	close(l.stop)
	<-l.done
}

// Stats returns a snapshot of the running counters.
func (l *Loop) Stats() Stats {
	return Stats{
		PacketsReceived: atomic.LoadUint64(&l.received),
		PacketsMatched:  atomic.LoadUint64(&l.matched),
		PacketsNoMatch:  atomic.LoadUint64(&l.noMatch),
		PacketsDropped:  atomic.LoadUint64(&l.dropped),
	}
}

// RunSweeper periodically expires pending probes older than maxAge, logging
// how many were dropped. Intended to be launched alongside Run in its own
// goroutine; returns when stop fires.
func RunSweeper(pending *PendingTable, interval, maxAge time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := pending.Sweep(maxAge); n > 0 {
				log.Printf("capture: swept %d expired pending probes", n)
			}
		}
	}
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	te, ok := err.(timeout)
	return ok && te.Timeout()
}
