package model

import "time"

// ScanStats holds running counters for a job in progress. average_rtt is
// maintained with integer nanosecond arithmetic to avoid floating-point
// accumulation drift over long scans.
type ScanStats struct {
	TotalTargets  int
	Scanned       int
	OpenPorts     int
	ClosedPorts   int
	FilteredPorts int
	Errors        int
	AverageRTT    time.Duration
	Elapsed       time.Duration
}

// NewScanStats starts a counter set for a job with the given target count.
func NewScanStats(totalTargets int) ScanStats {
	return ScanStats{TotalTargets: totalTargets}
}

// Update folds one probe result into the running counters.
func (s *ScanStats) Update(r ProbeResult) {
	s.Scanned++
	switch r.State {
	case Open:
		s.OpenPorts++
	case Closed:
		s.ClosedPorts++
	case Filtered, OpenFiltered:
		s.FilteredPorts++
	}

	n := int64(s.Scanned)
	if n == 1 {
		s.AverageRTT = r.RTT
		return
	}
	old := s.AverageRTT.Nanoseconds()
	add := r.RTT.Nanoseconds()
	total := old*(n-1) + add
	s.AverageRTT = time.Duration(total / n)
}

// Progress returns completion percentage in [0, 100]; 0 when total is 0.
func (s ScanStats) Progress() float64 {
	if s.TotalTargets == 0 {
		return 0
	}
	return 100 * float64(s.Scanned) / float64(s.TotalTargets)
}

// Rate returns targets scanned per second; 0 when elapsed is 0.
func (s ScanStats) Rate() float64 {
	secs := s.Elapsed.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(s.Scanned) / secs
}
