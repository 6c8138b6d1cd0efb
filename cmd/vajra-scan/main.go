// Command vajra-scan is the CLI entry point: it resolves targets, builds a
// scan job, runs it through the orchestrator, and renders results either as
// a live TUI or as streamed text/JSON/CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/vajra-scan/vajra/internal/capture"
	"github.com/vajra-scan/vajra/internal/config"
	"github.com/vajra-scan/vajra/internal/connectprobe"
	"github.com/vajra-scan/vajra/internal/model"
	"github.com/vajra-scan/vajra/internal/orchestrator"
	"github.com/vajra-scan/vajra/internal/output"
	"github.com/vajra-scan/vajra/internal/synprobe"
	"github.com/vajra-scan/vajra/internal/targets"
	"github.com/vajra-scan/vajra/internal/tui"
)

var version = "dev"

func main() {
	targetFlag := flag.String("t", "", "Target spec: CIDR, range, IP, or hostname (comma-separated)")
	portFlag := flag.String("p", "80,443", "Ports, e.g. \"22,80,443,8000-8100\"")
	modeFlag := flag.String("mode", "tcp", "Scan technique: tcp (connect) or tcp-syn (raw SYN, needs CAP_NET_RAW)")
	ifaceFlag := flag.String("i", "", "Capture/send interface, tcp-syn mode only")
	presetFlag := flag.String("preset", "", "Tuning preset: fast, accurate, stealth")
	rateFlag := flag.Int("rate", 0, "Probes per second, 0 = preset default (uncapped except stealth)")
	concurrencyFlag := flag.Int("c", 0, "Worker pool size, 0 = preset default")
	timeoutFlag := flag.Duration("timeout", 0, "Per-probe timeout, 0 = preset default")
	bannerTimeoutFlag := flag.Int("banner-timeout", 0, "Banner read timeout in ms, 0 = preset default (300, 1000 for accurate)")
	retriesFlag := flag.Int("retries", -1, "Retry count, -1 or 0 = preset default")
	fingerprintFlag := flag.Bool("fingerprint", false, "Identify services on open ports")
	formatFlag := flag.String("format", "text", "Output rendering: text, json, or csv")
	configFlag := flag.String("config", "", "YAML config file; flags override its values")

	outFile := flag.String("o", "", "JSONL results file")
	csvFile := flag.String("csv", "", "CSV results file")
	stdoutFlag := flag.Bool("stdout", false, "Stream JSONL results to stdout")
	openOnlyFlag := flag.Bool("open", false, "Only report open results")
	webhookURL := flag.String("webhook", "", "Webhook URL for batched JSONL POSTs")
	quietFlag := flag.Bool("q", false, "Suppress the TUI/text view")
	noTUIFlag := flag.Bool("no-tui", false, "Force plain text output even on a TTY")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("vajra-scan", version)
		return
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		log.Fatalf("vajra-scan: %v", err)
	}
	applyFlagOverrides(cfg, targetFlag, portFlag, modeFlag, ifaceFlag, presetFlag, rateFlag,
		concurrencyFlag, timeoutFlag, bannerTimeoutFlag, retriesFlag, fingerprintFlag, outFile, csvFile,
		stdoutFlag, openOnlyFlag, webhookURL, quietFlag, noTUIFlag)

	format := *formatFlag
	if format == "" {
		format = "text"
	}

	if len(cfg.Scan.Targets.Include) == 0 {
		log.Fatal("vajra-scan: no target specified; use -t or a config file's scan.targets.include")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Print("vajra-scan: shutting down")
		cancel()
	}()

	if err := run(ctx, cfg, format); err != nil {
		log.Fatalf("vajra-scan: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// applyFlagOverrides layers explicit CLI flags on top of whatever the config
// file set, flag by flag, so a bare invocation ("-t 10.0.0.1") still works
// without a config file at all.
func applyFlagOverrides(cfg *config.Config, target, ports, mode, iface, preset *string, rate, concurrency *int,
	timeout *time.Duration, bannerTimeoutMillis, retries *int, fingerprint *bool, outFile, csvFile *string,
	stdoutFlag, openOnly *bool, webhook *string, quiet, noTUI *bool) {

	if *target != "" {
		cfg.Scan.Targets.Include = []string{*target}
	}
	if *ports != "" {
		cfg.Scan.Ports = *ports
	}
	if cfg.Scan.Ports == "" {
		cfg.Scan.Ports = "80,443"
	}
	if *mode != "" {
		cfg.Scan.Mode = *mode
	}
	if *iface != "" {
		cfg.Scan.Interface = *iface
	}
	if *preset != "" {
		cfg.Scan.Preset = *preset
	}
	if *rate > 0 {
		cfg.Scan.Rate = *rate
	}
	if *concurrency > 0 {
		cfg.Scan.Concurrency = *concurrency
	}
	if *timeout > 0 {
		cfg.Scan.Timeout = config.Duration{Duration: *timeout}
	}
	if *bannerTimeoutMillis > 0 {
		cfg.Scan.BannerTimeout = config.Duration{Duration: time.Duration(*bannerTimeoutMillis) * time.Millisecond}
	}
	if *retries >= 0 {
		cfg.Scan.Retries = *retries
	}
	if *fingerprint {
		cfg.Scan.Fingerprint = true
	}
	if *outFile != "" {
		cfg.Output.File = *outFile
	}
	if *csvFile != "" {
		cfg.Output.CSV = *csvFile
	}
	if *stdoutFlag {
		cfg.Output.Stdout = true
	}
	if *openOnly {
		cfg.Output.OpenOnly = true
	}
	if *webhook != "" {
		cfg.Output.Webhook = &config.WebhookOutput{URL: *webhook}
	}
	if *quiet {
		cfg.Output.Quiet = true
	}
	if *noTUI {
		cfg.Output.NoTUI = true
	}
}

func run(ctx context.Context, cfg *config.Config, format string) error {
	ports, err := targets.ParsePorts(cfg.Scan.Ports)
	if err != nil {
		return err
	}

	spec := joinTargets(cfg.Scan.Targets.Include)
	jobTargets, err := targets.ExpandTargets(ctx, spec, ports)
	if err != nil {
		return err
	}
	jobTargets = excludeTargets(ctx, jobTargets, cfg.Scan.Targets.Exclude)

	opts := cfg.Scan.ScanOptions()
	job := model.NewScanJob(jobTargets).WithOptions(opts)

	orch := orchestrator.New(opts.MaxConcurrency, float64(opts.RateLimit))
	orch.AddScanner("tcp", orchestrator.NewConnectScanner(
		connectprobe.New().WithTimeout(opts.Timeout).WithRetries(opts.Retries).WithBannerTimeout(opts.BannerTimeout)))

	var loop *capture.Loop
	if synprobe.IsAvailable() {
		pending := capture.NewPendingTable()
		prober := synprobe.New(pending, opts.MaxConcurrency, opts.Timeout, opts.Retries)
		orch.AddScanner("tcp-syn", orchestrator.NewSynScanner(prober))

		if cfg.Scan.Interface != "" {
			listener, err := capture.NewListener(cfg.Scan.Interface)
			if err != nil {
				log.Printf("vajra-scan: tcp-syn capture unavailable, falling back to tcp: %v", err)
				cfg.Scan.Mode = "tcp"
			} else {
				loop = capture.NewLoop(listener, pending)
				go loop.Run()
				go capture.RunSweeper(pending, time.Second, opts.Timeout*4, ctx.Done())
				defer loop.Stop()
			}
		}
	}

	orch.SubmitJob(job)

	sink, err := buildOutputSink(cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	done := make(chan error, 1)
	go func() {
		_, err := orch.Run(ctx, cfg.Scan.ScannerName())
		done <- err
	}()

	if !cfg.Output.Quiet && !cfg.Output.NoTUI && isatty.IsTerminal(os.Stdout.Fd()) {
		runTUI(ctx, orch, cfg, done)
	} else {
		<-done
	}

	var formatter output.Formatter
	if !cfg.Output.Quiet {
		formatter = newReportFormatter(format, os.Stdout, len(jobTargets))
	}

	for _, r := range orch.Results() {
		if cfg.Output.OpenOnly && !r.IsOpen() {
			continue
		}
		res := output.ResultFromProbe(r)
		if err := sink.Write(res); err != nil {
			log.Printf("vajra-scan: output error: %v", err)
		}
		if formatter != nil {
			if err := formatter.Write(res); err != nil {
				log.Printf("vajra-scan: format error: %v", err)
			}
		}
	}
	if formatter != nil {
		if err := formatter.Flush(); err != nil {
			log.Printf("vajra-scan: format error: %v", err)
		}
	}
	return nil
}

// newReportFormatter builds the literal report renderer the -format flag
// selects. Unrecognized values fall back to text, matching the flag's
// documented default.
func newReportFormatter(format string, w io.Writer, totalTargets int) output.Formatter {
	switch format {
	case "json":
		return output.NewJSONFormatter(w, totalTargets)
	case "csv":
		return output.NewCSVFormatter(w)
	default:
		return output.NewTextFormatter(w)
	}
}

func joinTargets(include []string) string {
	out := ""
	for i, t := range include {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}

// excludeTargets drops any target whose IP appears in the exclude spec.
// Exclusions are resolved with the same CIDR/range/hostname rules as
// includes.
func excludeTargets(ctx context.Context, in []model.Target, exclude []string) []model.Target {
	if len(exclude) == 0 {
		return in
	}
	excludedIPs, err := targets.ResolveIPs(ctx, joinTargets(exclude))
	if err != nil {
		log.Printf("vajra-scan: ignoring invalid exclude list: %v", err)
		return in
	}
	blocked := make(map[string]bool, len(excludedIPs))
	for _, ip := range excludedIPs {
		blocked[ip.String()] = true
	}
	out := in[:0]
	for _, t := range in {
		if !blocked[t.IP.String()] {
			out = append(out, t)
		}
	}
	return out
}

func buildOutputSink(cfg *config.Config) (*output.OutputSink, error) {
	sink := output.NewOutputSink()
	if cfg.Output.File != "" {
		w, err := output.NewWriter(cfg.Output.File)
		if err != nil {
			return nil, err
		}
		sink.Add(w)
	}
	if cfg.Output.CSV != "" {
		f, err := os.OpenFile(cfg.Output.CSV, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		sink.Add(output.NewClosingWriter(output.NewCSVFormatter(f), f))
	}
	if cfg.Output.Stdout {
		sink.Add(output.NewStdoutWriter(0))
	}
	if cfg.Output.Webhook != nil && cfg.Output.Webhook.URL != "" {
		sink.Add(output.NewWebhookWriter(output.WebhookConfig{
			URL:        cfg.Output.Webhook.URL,
			BatchSize:  cfg.Output.Webhook.BatchSize,
			Timeout:    cfg.Output.Webhook.Timeout.Duration,
			MaxRetries: cfg.Output.Webhook.MaxRetries,
			Headers:    cfg.Output.Webhook.Headers,
		}))
	}
	return sink, nil
}

func runTUI(ctx context.Context, orch *orchestrator.Orchestrator, cfg *config.Config, done chan error) {
	m := tui.New(joinTargets(cfg.Scan.Targets.Include), cfg.Scan.Ports, cfg.Scan.ScannerName())
	program := tea.NewProgram(m)

	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		sent := 0
		for {
			select {
			case <-ticker.C:
				results := orch.Results()
				for _, r := range results[sent:] {
					program.Send(tui.ResultMsg{Result: r})
				}
				sent = len(results)
				s := orch.Progress()
				program.Send(tui.StatsMsg{Snapshot: tui.ProgressSnapshot{
					Total: s.Total, Completed: s.Completed, Failed: s.Failed,
				}})
				if s.Done() {
					program.Send(tui.DoneMsg{})
					return
				}
			case <-ctx.Done():
				program.Send(tui.DoneMsg{})
				return
			}
		}
	}()

	if _, err := program.Run(); err != nil {
		log.Printf("vajra-scan: tui error: %v", err)
	}
	<-done
}
