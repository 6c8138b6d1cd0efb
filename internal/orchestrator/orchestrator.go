package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/vajra-scan/vajra/internal/limiter"
	"github.com/vajra-scan/vajra/internal/model"
	"github.com/vajra-scan/vajra/internal/progress"
	"github.com/vajra-scan/vajra/internal/service"
)

// Orchestrator owns a job queue, a rate limiter, a progress tracker and the
// registered scanners, and drives a fixed worker pool over each job's
// targets. One Orchestrator can run many jobs sequentially; each Run drains
// exactly one job from the queue.
type Orchestrator struct {
	mu          sync.Mutex
	jobQueue    []model.ScanJob
	scanners    map[string]Scanner
	concurrency int

	rateLimiter *limiter.TokenBucket
	progress    *progress.Tracker

	resultsMu sync.Mutex
	results   []model.ProbeResult
}

// New creates an Orchestrator with a worker-pool size and a rate limit in
// probes/sec (0 means uncapped).
func New(concurrency int, rateLimit float64) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Orchestrator{
		scanners:    make(map[string]Scanner),
		concurrency: concurrency,
		rateLimiter: limiter.NewTokenBucket(rateLimit, rateLimit),
		progress:    progress.New(),
	}
}

// AddScanner registers a Scanner under a name (e.g. "tcp", "tcp-syn").
// Run's scanner selection looks it up by that name.
func (o *Orchestrator) AddScanner(name string, scanner Scanner) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scanners[name] = scanner
}

// SubmitJob queues job and seeds the progress tracker's total so a caller
// polling Progress mid-run sees an accurate denominator immediately.
func (o *Orchestrator) SubmitJob(job model.ScanJob) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress.SetTotal(job.TargetCount())
	o.jobQueue = append(o.jobQueue, job)
}

// Progress returns a snapshot of completed/failed/total counters.
func (o *Orchestrator) Progress() progress.Snapshot {
	return o.progress.Snapshot()
}

// Run pops one job from the queue and scans every one of its targets with
// concurrency workers, gated by the shared rate limiter. scannerName selects
// the registered Scanner; an empty string defaults to "tcp". Run returns
// (false, nil) without error when the queue is empty, so callers can loop
// "for { more, err := orch.Run(ctx, name); if !more { break } }".
func (o *Orchestrator) Run(ctx context.Context, scannerName string) (bool, error) {
	job, ok := o.popJob()
	if !ok {
		return false, nil
	}

	scanner, err := o.selectScanner(scannerName)
	if err != nil {
		log.Printf("orchestrator: job %s skipped: %v", job.ID, err)
		return true, nil
	}

	log.Printf("orchestrator: starting job %s targets=%d scanner=%s", job.ID, job.TargetCount(), scanner.Name())

	work := make(chan model.Target, o.concurrency)
	var wg sync.WaitGroup
	for i := 0; i < o.concurrency; i++ {
		wg.Add(1)
		go o.worker(ctx, scanner, job.Options, work, &wg)
	}

feed:
	for _, t := range job.Targets {
		select {
		case work <- t:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	o.progress.PrintSummary()
	return true, ctx.Err()
}

func (o *Orchestrator) worker(ctx context.Context, scanner Scanner, opts model.ScanOptions, work <-chan model.Target, wg *sync.WaitGroup) {
	defer wg.Done()
	for target := range work {
		if ctx.Err() != nil {
			o.progress.IncrementFailed()
			continue
		}

		o.rateLimiter.Acquire()

		result, err := scanner.Scan(ctx, target)
		if err != nil {
			o.progress.IncrementFailed()
			continue
		}

		if opts.Fingerprint && result.IsOpen() {
			if match, ok := service.Identify(target.Port, result.Banner); ok {
				result = result.WithService(match)
			}
		}

		o.progress.IncrementCompleted()
		o.resultsMu.Lock()
		o.results = append(o.results, result)
		o.resultsMu.Unlock()
	}
}

// Results returns a copy of every result collected so far across all runs.
func (o *Orchestrator) Results() []model.ProbeResult {
	o.resultsMu.Lock()
	defer o.resultsMu.Unlock()
	out := make([]model.ProbeResult, len(o.results))
	copy(out, o.results)
	return out
}

func (o *Orchestrator) popJob() (model.ScanJob, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.jobQueue) == 0 {
		return model.ScanJob{}, false
	}
	job := o.jobQueue[0]
	o.jobQueue = o.jobQueue[1:]
	return job, true
}

func (o *Orchestrator) selectScanner(name string) (Scanner, error) {
	if name == "" {
		name = "tcp"
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	scanner, ok := o.scanners[name]
	if !ok {
		return nil, fmt.Errorf("orchestrator: scanner %q not registered", name)
	}
	return scanner, nil
}
