package model

import "time"

// ScanOptions tunes prober behaviour for a job.
type ScanOptions struct {
	Timeout        time.Duration
	BannerTimeout  time.Duration
	Retries        int
	Fingerprint    bool
	MaxConcurrency int
	RateLimit      int // packets/sec, 0 = uncapped
}

// DefaultOptions mirrors the "balanced" middle ground between the presets.
func DefaultOptions() ScanOptions {
	return ScanOptions{
		Timeout:        2 * time.Second,
		BannerTimeout:  300 * time.Millisecond,
		Retries:        1,
		Fingerprint:    false,
		MaxConcurrency: 10000,
		RateLimit:      0,
	}
}

// FastOptions: low timeout, no retries, very high concurrency.
func FastOptions() ScanOptions {
	return ScanOptions{
		Timeout:        1 * time.Second,
		BannerTimeout:  300 * time.Millisecond,
		Retries:        0,
		Fingerprint:    false,
		MaxConcurrency: 20000,
		RateLimit:      0,
	}
}

// AccurateOptions: higher timeouts and retries, fingerprinting on. Banner
// timeout is raised to a full second so slower services have a realistic
// chance of being identified instead of just being marked open.
func AccurateOptions() ScanOptions {
	return ScanOptions{
		Timeout:        5 * time.Second,
		BannerTimeout:  1000 * time.Millisecond,
		Retries:        3,
		Fingerprint:    true,
		MaxConcurrency: 5000,
		RateLimit:      0,
	}
}

// StealthOptions: low concurrency, explicit rate cap.
func StealthOptions() ScanOptions {
	return ScanOptions{
		Timeout:        3 * time.Second,
		BannerTimeout:  300 * time.Millisecond,
		Retries:        1,
		Fingerprint:    false,
		MaxConcurrency: 100,
		RateLimit:      100,
	}
}
