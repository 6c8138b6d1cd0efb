// Package tui is the optional bubbletea live-progress view: a scrolling,
// filterable table of probe results plus a progress bar, fed by
// ResultMsg/StatsMsg as the orchestrator's workers complete probes.
package tui

import "github.com/vajra-scan/vajra/internal/model"

// ResultMsg is a single completed probe, sent into the bubbletea program as
// the orchestrator's workers produce results.
type ResultMsg struct {
	Result model.ProbeResult
}

// StatsMsg carries a progress snapshot, sent on a timer independently of
// ResultMsg so the header updates even during a lull in open-port hits.
type StatsMsg struct {
	Snapshot ProgressSnapshot
}

// ProgressSnapshot mirrors progress.Snapshot without importing it directly,
// so tui has no dependency on the orchestrator's internals beyond the
// counts it renders.
type ProgressSnapshot struct {
	Total     int
	Completed int
	Failed    int
}

func (s ProgressSnapshot) fraction() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed+s.Failed) / float64(s.Total)
}

// DoneMsg signals the scan finished; the program quits after rendering a
// final frame.
type DoneMsg struct{}
