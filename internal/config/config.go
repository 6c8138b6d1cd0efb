// Package config loads a scan's settings from a YAML file and turns them
// into the model types the orchestrator and target resolver consume.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML document shape.
type Config struct {
	Scan   ScanConfig   `yaml:"scan"`
	Output OutputConfig `yaml:"output"`
}

// ScanConfig holds every setting that feeds a model.ScanJob.
type ScanConfig struct {
	Targets       TargetsConfig `yaml:"targets"`
	Ports         string        `yaml:"ports"`       // e.g., "22,80,443,8000-8100"
	Interface     string        `yaml:"interface"`   // capture/send NIC, tcp-syn mode only
	Mode          string        `yaml:"mode"`        // "tcp" or "tcp-syn"
	Rate          int           `yaml:"rate"`        // probes/sec, 0 = preset default
	Concurrency   int           `yaml:"concurrency"` // worker pool size
	Fingerprint   bool          `yaml:"fingerprint"` // identify services on open ports
	Timeout       Duration      `yaml:"timeout"`         // per-probe timeout
	BannerTimeout Duration      `yaml:"banner_timeout"`  // banner read timeout
	Retries       int           `yaml:"retries"`
	Preset        string        `yaml:"preset"` // "fast", "accurate", "stealth"; "" = default
}

// TargetsConfig defines what to scan and what to skip.
type TargetsConfig struct {
	Include []string `yaml:"include"` // CIDR, IP, range, or hostname tokens
	Exclude []string `yaml:"exclude"`
}

// OutputConfig controls how results are reported.
type OutputConfig struct {
	File     string         `yaml:"file"`      // JSONL results file
	CSV      string         `yaml:"csv"`       // CSV results file
	Stdout   bool           `yaml:"stdout"`    // stream JSONL to stdout
	Webhook  *WebhookOutput `yaml:"webhook"`
	OpenOnly bool           `yaml:"open_only"` // only report open results
	Quiet    bool           `yaml:"quiet"`
	NoTUI    bool           `yaml:"no_tui"`
}

// WebhookOutput configures the webhook HTTP POST sink.
type WebhookOutput struct {
	URL        string            `yaml:"url"`
	BatchSize  int               `yaml:"batch_size"`
	Timeout    Duration          `yaml:"timeout"`
	MaxRetries int               `yaml:"max_retries"`
	Headers    map[string]string `yaml:"headers"`
}

// Duration wraps time.Duration so YAML can carry "5s"/"10m" style strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
