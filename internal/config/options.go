package config

import (
	"github.com/vajra-scan/vajra/internal/model"
)

// ScanOptions converts the YAML scan block into a model.ScanOptions,
// starting from the named preset (if any) and applying explicit overrides
// on top — a preset picks sane defaults, individual fields still win.
func (c ScanConfig) ScanOptions() model.ScanOptions {
	opts := presetOptions(c.Preset)

	if c.Concurrency > 0 {
		opts.MaxConcurrency = c.Concurrency
	}
	if c.Timeout.Duration > 0 {
		opts.Timeout = c.Timeout.Duration
	}
	if c.BannerTimeout.Duration > 0 {
		opts.BannerTimeout = c.BannerTimeout.Duration
	}
	if c.Retries > 0 {
		opts.Retries = c.Retries
	}
	if c.Fingerprint {
		opts.Fingerprint = true
	}
	if c.Rate > 0 {
		opts.RateLimit = c.Rate
	}
	return opts
}

func presetOptions(preset string) model.ScanOptions {
	switch preset {
	case "fast":
		return model.FastOptions()
	case "accurate":
		return model.AccurateOptions()
	case "stealth":
		return model.StealthOptions()
	default:
		return model.DefaultOptions()
	}
}

// ScannerName returns the orchestrator scanner to select for Mode, defaulting
// to "tcp" for an empty or unrecognized mode.
func (c ScanConfig) ScannerName() string {
	if c.Mode == "tcp-syn" {
		return "tcp-syn"
	}
	return "tcp"
}
