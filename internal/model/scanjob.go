package model

import (
	"time"

	"github.com/google/uuid"
)

// ScanJob bundles a target list with the options to probe them under.
// Targets are never reordered by the core except as a side effect of
// concurrent completion.
type ScanJob struct {
	ID        uuid.UUID
	Targets   []Target
	Options   ScanOptions
	Priority  uint8
	CreatedAt time.Time
}

// NewScanJob creates a job with default options and priority 0.
func NewScanJob(targets []Target) ScanJob {
	return ScanJob{
		ID:        uuid.New(),
		Targets:   targets,
		Options:   DefaultOptions(),
		CreatedAt: time.Now(),
	}
}

func (j ScanJob) WithOptions(opts ScanOptions) ScanJob {
	j.Options = opts
	return j
}

func (j ScanJob) WithPriority(priority uint8) ScanJob {
	j.Priority = priority
	return j
}

func (j ScanJob) TargetCount() int {
	return len(j.Targets)
}
