package orchestrator

import (
	"context"

	"github.com/vajra-scan/vajra/internal/connectprobe"
	"github.com/vajra-scan/vajra/internal/model"
	"github.com/vajra-scan/vajra/internal/synprobe"
)

// connectScanner adapts connectprobe.Prober to Scanner. TCP connect probing
// never returns a hard error; unreachable states are folded into the result
// itself (Closed/Filtered), so Scan's error return is always nil.
type connectScanner struct {
	prober connectprobe.Prober
}

// NewConnectScanner wraps the TCP connect prober as a Scanner; the CLI
// registers it under "tcp". It needs no elevated privileges and works on
// every platform this engine supports.
func NewConnectScanner(prober connectprobe.Prober) Scanner {
	return connectScanner{prober: prober}
}

func (s connectScanner) Scan(ctx context.Context, target model.Target) (model.ProbeResult, error) {
	return s.prober.Probe(ctx, target), nil
}

func (connectScanner) Name() string      { return "tcp" }
func (connectScanner) RequiresRoot() bool { return false }

// synScanner adapts synprobe.Prober to Scanner for half-open SYN scanning,
// registered under "tcp-syn". Only available on linux with CAP_NET_RAW (or
// root); callers should check synprobe.IsAvailable before registering it.
type synScanner struct {
	prober *synprobe.Prober
}

func NewSynScanner(prober *synprobe.Prober) Scanner {
	return synScanner{prober: prober}
}

func (s synScanner) Scan(ctx context.Context, target model.Target) (model.ProbeResult, error) {
	return s.prober.Probe(ctx, target)
}

func (synScanner) Name() string      { return "tcp-syn" }
func (synScanner) RequiresRoot() bool { return true }
