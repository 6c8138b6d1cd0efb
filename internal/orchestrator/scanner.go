// Package orchestrator schedules scan jobs across a worker pool, gating
// throughput with a rate limiter and reporting progress as probes complete.
package orchestrator

import (
	"context"

	"github.com/vajra-scan/vajra/internal/model"
)

// Scanner probes a single target and reports its reachability. connectprobe
// and synprobe are both registered under a name ("tcp", "tcp-syn") so a job
// can pick a scan technique independently of target resolution.
type Scanner interface {
	Scan(ctx context.Context, target model.Target) (model.ProbeResult, error)
	Name() string
	RequiresRoot() bool
}
